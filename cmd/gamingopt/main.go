// Package main is the CLI entry point for gamingopt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tharun-extinct/Gaming-optimizer/internal/controller"
	"github.com/tharun-extinct/Gaming-optimizer/internal/daemon"
	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
	"github.com/tharun-extinct/Gaming-optimizer/internal/infra"
	"github.com/tharun-extinct/Gaming-optimizer/internal/overlay"
	"github.com/tharun-extinct/Gaming-optimizer/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gamingopt",
	Short: "Gaming optimizer - kills distracting processes and shows a crosshair overlay",
	Long: `gamingopt manages gaming profiles. Activating a profile terminates the
processes it lists (guarded by a safety blocklist of critical system
processes) and shows a transparent, click-through crosshair overlay on
top of the game.

The overlay runs as a separate process supervised by 'gamingopt run'.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller daemon in the foreground",
	Long: `Runs the controller loop. It watches profiles.json and config.json for
changes (made by 'gamingopt activate' or the profile editor) and applies
them: killing the configured processes and driving the overlay window.`,
	RunE: runRun,
}

var activateCmd = &cobra.Command{
	Use:   "activate <profile>",
	Short: "Activate a gaming profile",
	Long: `Marks the named profile active. The running 'gamingopt run' daemon picks
the change up, kills the profile's processes and shows its crosshair.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivate,
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate the current profile and hide the overlay",
	RunE:  runDeactivate,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle crosshair overlay visibility",
	RunE:  runToggle,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active profile and overlay state",
	RunE:  runStatus,
}

var killCmd = &cobra.Command{
	Use:   "kill <name>...",
	Short: "Terminate processes by name immediately",
	Long: `Runs one termination batch against the given process names, without
touching any profile. Names are matched case-insensitively with a
trailing .exe ignored; critical system processes are never killed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKill,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

// Hidden overlay command - used for self-exec when spawning the overlay
// window process
var overlayCmd = &cobra.Command{
	Use:    controller.OverlaySubcommand,
	Hidden: true,
	RunE:   runOverlay,
}

var (
	controlAddr      string
	anySizeCrosshair bool
	killDryRun       bool
	jsonOutput       bool
)

func init() {
	overlayCmd.Flags().StringVar(&controlAddr, "control-addr", "", "Controller's control channel address")
	overlayCmd.Flags().BoolVar(&anySizeCrosshair, "any-size-crosshair", false, "Accept crosshair images of any size")
	runCmd.Flags().BoolVar(&anySizeCrosshair, "any-size-crosshair", false, "Accept crosshair images of any size")
	killCmd.Flags().BoolVar(&killDryRun, "dry-run", false, "Show what would be killed without killing")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(overlayCmd)
}

func openStores() (domain.ProfileStore, domain.ConfigStore, error) {
	profiles, err := infra.NewProfileStore()
	if err != nil {
		return nil, nil, err
	}
	config, err := infra.NewConfigStore()
	if err != nil {
		return nil, nil, err
	}
	return profiles, config, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	profiles, config, err := openStores()
	if err != nil {
		return err
	}

	pm := infra.NewProcessManager()
	terminator := usecase.NewTerminator(pm, logger)

	overlayCfg := controller.DefaultConfig()
	overlayCfg.AnySizeCrosshair = anySizeCrosshair
	supervisor := controller.New(overlayCfg, logger)

	activator := usecase.NewActivator(terminator, supervisor, logger)
	d := daemon.New(daemon.DefaultConfig(), profiles, config, activator, supervisor, logger)

	// Graceful shutdown on Ctrl-C / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := d.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runActivate(cmd *cobra.Command, args []string) error {
	name := args[0]

	profiles, config, err := openStores()
	if err != nil {
		return err
	}

	profile, err := profiles.Find(name)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile not found: %s", name)
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	for _, target := range profile.ProcessesToKill {
		if usecase.IsProtected(target) {
			fmt.Printf("Warning: %s is a protected system process and will be skipped\n", target)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ActiveProfile = profile.Name
	cfg.OverlayVisible = profile.OverlayEnabled && profile.HasCrosshair()
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("Profile %q activated.\n", profile.Name)
	fmt.Println("The running 'gamingopt run' daemon will apply it within seconds.")
	return nil
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	_, config, err := openStores()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ActiveProfile == "" {
		fmt.Println("No profile is active.")
		return nil
	}

	name := cfg.ActiveProfile
	cfg.ActiveProfile = ""
	cfg.OverlayVisible = false
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("Profile %q deactivated.\n", name)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	_, config, err := openStores()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ActiveProfile == "" {
		return fmt.Errorf("no active profile; activate one first")
	}

	cfg.OverlayVisible = !cfg.OverlayVisible
	if err := config.Save(cfg); err != nil {
		return err
	}

	if cfg.OverlayVisible {
		fmt.Println("Overlay shown.")
	} else {
		fmt.Println("Overlay hidden.")
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	profiles, config, err := openStores()
	if err != nil {
		return err
	}

	all, err := profiles.Load()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No profiles configured yet.")
		return nil
	}

	cfg, _ := config.Load()

	fmt.Println("\n=== Profiles ===")
	for _, p := range all {
		marker := " "
		if p.Name == cfg.ActiveProfile {
			marker = "*"
		}
		fmt.Printf("\n%s %s\n", marker, p.Name)
		fmt.Println("  Processes to kill:")
		for _, proc := range p.ProcessesToKill {
			fmt.Printf("    - %s\n", proc)
		}
		if p.HasCrosshair() {
			fmt.Printf("  Crosshair: %s (offset %+d,%+d, enabled=%v)\n",
				p.CrosshairImagePath, p.CrosshairXOffset, p.CrosshairYOffset, p.OverlayEnabled)
		} else {
			fmt.Println("  Crosshair: none")
		}
	}
	fmt.Println("\n================")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, config, err := openStores()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, _ := infra.DataDir()

	fmt.Println("\n=== gamingopt Status ===")
	if cfg.ActiveProfile == "" {
		fmt.Println("Active profile: none")
	} else {
		fmt.Printf("Active profile: %s\n", cfg.ActiveProfile)
		fmt.Printf("Overlay visible: %v\n", cfg.OverlayVisible)
	}
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("========================")
	return nil
}

func runKill(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	pm := infra.NewProcessManager()

	if killDryRun {
		return printDryRun(pm, args)
	}

	terminator := usecase.NewTerminator(pm, logger)
	report := terminator.Terminate(args)
	printReport(report)
	return nil
}

func printDryRun(pm domain.ProcessManager, targets []string) error {
	procs, err := pm.Processes()
	if err != nil {
		return err
	}

	for _, target := range targets {
		if usecase.IsProtected(target) {
			fmt.Printf("%s: protected, would be skipped\n", target)
			continue
		}
		normalized := usecase.NormalizeProcessName(target)
		matched := false
		for _, proc := range procs {
			if usecase.NormalizeProcessName(proc.Name) == normalized {
				fmt.Printf("%s: would kill PID %d\n", target, proc.PID)
				matched = true
			}
		}
		if !matched {
			fmt.Printf("%s: not running\n", target)
		}
	}
	return nil
}

func printReport(report *domain.KillReport) {
	if report.Empty() {
		fmt.Println("Nothing to do.")
		return
	}
	for _, k := range report.Killed {
		fmt.Printf("Killed %s (PID %d)\n", k.Name, k.PID)
	}
	for _, f := range report.Failed {
		fmt.Printf("Failed to kill %s (PID %d): %v\n", f.Name, f.PID, f.Err)
	}
	for _, n := range report.NotFound {
		fmt.Printf("Not running: %s\n", n)
	}
	for _, s := range report.BlocklistSkipped {
		fmt.Printf("Skipped protected process: %s\n", s)
	}
}

func runOverlay(cmd *cobra.Command, args []string) error {
	if controlAddr == "" {
		return fmt.Errorf("--control-addr is required")
	}

	// The overlay has no terminal; log to a file like the daemon.
	logger := createOverlayLogger()
	defer func() { _ = logger.Sync() }()

	opts := overlay.DefaultOptions(controlAddr)
	if anySizeCrosshair {
		opts.Loader = overlay.LoaderConfig{}
	}

	// A startup failure here (no compositor, no monitor, controller gone)
	// is fatal for this process; cobra exits non-zero on the error.
	return overlay.Run(opts, logger)
}

func createOverlayLogger() *zap.Logger {
	logPath := filepath.Join(os.TempDir(), "gamingopt-overlay.log")

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath}
	config.ErrorOutputPaths = []string{logPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("gamingopt %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
