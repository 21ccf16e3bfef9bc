package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// ActivatorImpl turns profile activation into the two independent effects it
// drives: the termination batch and the overlay command sequence. The
// overlay is best-effort; its absence never blocks process termination.
type ActivatorImpl struct {
	terminator domain.Terminator
	overlay    domain.OverlaySupervisor
	logger     *zap.Logger
}

// NewActivator creates a profile activator.
func NewActivator(t domain.Terminator, o domain.OverlaySupervisor, logger *zap.Logger) *ActivatorImpl {
	return &ActivatorImpl{
		terminator: t,
		overlay:    o,
		logger:     logger,
	}
}

// Activate applies a profile: kills its configured processes, then
// reconciles the overlay to the profile's crosshair settings. The kill
// report is always returned, even when the overlay side fails.
func (a *ActivatorImpl) Activate(ctx context.Context, profile domain.Profile) (*domain.KillReport, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	a.logger.Info("activating profile", zap.String("profile", profile.Name))

	report := a.terminator.Terminate(profile.ProcessesToKill)

	if err := a.reconcileOverlay(ctx, profile); err != nil {
		a.logger.Warn("overlay unavailable for this session",
			zap.String("profile", profile.Name),
			zap.Error(err))
	}

	return report, nil
}

// Deactivate hides the overlay. No processes are resurrected; termination
// has no inverse.
func (a *ActivatorImpl) Deactivate(ctx context.Context) error {
	a.logger.Info("deactivating profile")

	if !a.overlay.Alive() {
		return nil
	}
	return a.overlay.Send(domain.SetVisible(false))
}

// reconcileOverlay maps the profile's crosshair settings onto the overlay
// command sequence: image, offsets, then visibility.
func (a *ActivatorImpl) reconcileOverlay(ctx context.Context, profile domain.Profile) error {
	if !profile.HasCrosshair() {
		// No image to show; an enabled overlay stays hidden.
		if a.overlay.Alive() {
			return a.overlay.Send(domain.SetVisible(false))
		}
		return nil
	}

	if !profile.OverlayEnabled {
		if a.overlay.Alive() {
			return a.overlay.Send(domain.SetVisible(false))
		}
		return nil
	}

	if err := a.overlay.EnsureRunning(ctx); err != nil {
		return err
	}

	for _, cmd := range []domain.OverlayCommand{
		domain.SetImage(profile.CrosshairImagePath),
		domain.SetOffset(profile.CrosshairXOffset, profile.CrosshairYOffset),
		domain.SetVisible(true),
	} {
		if err := a.overlay.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}
