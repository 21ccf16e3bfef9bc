// Package daemon implements the long-running controller loop: it watches
// the profile and config files for edits and reconciles the termination
// engine and overlay to the desired state.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// Activator is the slice of the activation usecase the daemon needs.
type Activator interface {
	Activate(ctx context.Context, profile domain.Profile) (*domain.KillReport, error)
	Deactivate(ctx context.Context) error
}

// Config holds daemon timing configuration.
type Config struct {
	// PollInterval is how often the profile/config files are checked
	// for out-of-band edits (the profile editor writes them directly).
	PollInterval time.Duration
}

// DefaultConfig returns default daemon configuration.
func DefaultConfig() Config {
	return Config{PollInterval: 2 * time.Second}
}

// Daemon reconciles persisted state with the running overlay and kill
// engine. Activation requests arrive as config-file edits made by the
// activate/deactivate/toggle CLI commands, mirroring how the external
// profile editor communicates.
type Daemon struct {
	config    Config
	profiles  domain.ProfileStore
	appConfig domain.ConfigStore
	activator Activator
	overlay   domain.OverlaySupervisor
	logger    *zap.Logger

	activeProfile  string
	overlayVisible bool
	profileMark    int64
	configMark     int64
}

// New creates a daemon.
func New(
	config Config,
	profiles domain.ProfileStore,
	appConfig domain.ConfigStore,
	activator Activator,
	overlay domain.OverlaySupervisor,
	logger *zap.Logger,
) *Daemon {
	return &Daemon{
		config:    config,
		profiles:  profiles,
		appConfig: appConfig,
		activator: activator,
		overlay:   overlay,
		logger:    logger,
	}
}

// Run starts the reconcile loop. Blocks until context is canceled, then
// shuts the overlay down and returns.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started")

	d.profileMark = d.profiles.ModTime()
	d.configMark = d.appConfig.ModTime()
	d.reconcile(ctx)

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			if err := d.overlay.Shutdown(); err != nil {
				d.logger.Warn("overlay shutdown failed", zap.Error(err))
			}
			return ctx.Err()

		case <-ticker.C:
			d.checkForChanges(ctx)
			d.reviveOverlay(ctx)
		}
	}
}

// checkForChanges reconciles when either backing file was edited.
func (d *Daemon) checkForChanges(ctx context.Context) {
	profileMark := d.profiles.ModTime()
	configMark := d.appConfig.ModTime()
	if profileMark == d.profileMark && configMark == d.configMark {
		return
	}

	d.logger.Debug("persisted state changed, reconciling")
	d.profileMark = profileMark
	d.configMark = configMark
	d.reconcile(ctx)
}

// reviveOverlay re-activates the current profile when its crosshair
// should be on screen but the overlay process stopped answering. Runs
// every poll so a crashed (or never-spawned) overlay comes back without
// anyone touching the config files.
func (d *Daemon) reviveOverlay(ctx context.Context) {
	if !d.overlayVisible || d.overlay.Alive() {
		return
	}
	d.logger.Warn("overlay process dead, relaunching",
		zap.String("profile", d.activeProfile))
	d.switchProfile(ctx, d.activeProfile)
}

// reconcile drives the running state toward what config.json asks for.
func (d *Daemon) reconcile(ctx context.Context) {
	cfg, err := d.appConfig.Load()
	if err != nil {
		d.logger.Warn("failed to load config", zap.Error(err))
		return
	}

	if cfg.ActiveProfile != d.activeProfile {
		d.switchProfile(ctx, cfg.ActiveProfile)
	} else if cfg.ActiveProfile != "" && cfg.OverlayVisible != d.overlayVisible {
		d.setVisibility(cfg.OverlayVisible)
	}
}

// switchProfile deactivates the current profile and activates the named
// one. An unknown name deactivates and logs; the daemon keeps running.
func (d *Daemon) switchProfile(ctx context.Context, name string) {
	if name == "" {
		if err := d.activator.Deactivate(ctx); err != nil {
			d.logger.Warn("deactivation failed", zap.Error(err))
		}
		d.activeProfile = ""
		d.overlayVisible = false
		return
	}

	profile, err := d.profiles.Find(name)
	if err != nil {
		d.logger.Warn("failed to load profiles", zap.Error(err))
		return
	}
	if profile == nil {
		d.logger.Warn("active profile not found, deactivating",
			zap.String("profile", name))
		d.switchProfile(ctx, "")
		return
	}

	report, err := d.activator.Activate(ctx, *profile)
	if err != nil {
		d.logger.Error("activation failed",
			zap.String("profile", name),
			zap.Error(err))
		return
	}

	d.activeProfile = name
	d.overlayVisible = profile.OverlayEnabled && profile.HasCrosshair()
	d.logReport(report)

	// Persist what actually happened so the toggle state survives
	// restarts, matching the visibility the overlay ended up with.
	cfg, loadErr := d.appConfig.Load()
	if loadErr == nil && cfg.OverlayVisible != d.overlayVisible {
		cfg.OverlayVisible = d.overlayVisible
		if saveErr := d.appConfig.Save(cfg); saveErr == nil {
			d.configMark = d.appConfig.ModTime()
		}
	}
}

// setVisibility pushes a visibility toggle to the overlay.
func (d *Daemon) setVisibility(visible bool) {
	if err := d.overlay.Send(domain.SetVisible(visible)); err != nil {
		d.logger.Warn("visibility toggle failed", zap.Error(err))
		return
	}
	d.overlayVisible = visible
	d.logger.Info("overlay visibility changed", zap.Bool("visible", visible))
}

// logReport summarizes a kill batch at the appropriate levels.
func (d *Daemon) logReport(report *domain.KillReport) {
	if report == nil || report.Empty() {
		return
	}
	for _, k := range report.Killed {
		d.logger.Info("killed process",
			zap.String("name", k.Name), zap.Int32("pid", k.PID))
	}
	for _, f := range report.Failed {
		d.logger.Warn("failed to kill process",
			zap.String("name", f.Name), zap.Int32("pid", f.PID), zap.Error(f.Err))
	}
	for _, n := range report.NotFound {
		d.logger.Debug("process not running", zap.String("name", n))
	}
	for _, s := range report.BlocklistSkipped {
		d.logger.Warn("skipped protected process", zap.String("name", s))
	}
}
