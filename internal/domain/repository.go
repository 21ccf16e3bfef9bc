package domain

import "context"

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// Processes enumerates all running processes.
	Processes() ([]ProcessInfo, error)

	// Kill terminates a process by PID (SIGKILL).
	Kill(pid int32) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int32) bool
}

// ProfileStore provides access to the persisted gaming profiles.
// Implementation: profiles.json in the app data directory.
type ProfileStore interface {
	// Load returns all profiles. A missing file yields an empty list.
	Load() ([]Profile, error)

	// Save persists the full profile list.
	Save(profiles []Profile) error

	// Find returns the profile with the given name (case-insensitive),
	// or nil if absent.
	Find(name string) (*Profile, error)

	// ModTime returns an opaque change marker for the backing file,
	// used by the daemon to detect out-of-band edits. Zero when absent.
	ModTime() int64
}

// ConfigStore persists the runtime AppConfig.
type ConfigStore interface {
	// Load returns the stored config, or the zero config when absent.
	Load() (AppConfig, error)

	// Save persists the config.
	Save(cfg AppConfig) error

	// ModTime returns an opaque change marker for the backing file.
	ModTime() int64
}

// Terminator runs one termination batch against a set of target names.
type Terminator interface {
	// Terminate classifies and kills every target, returning the
	// per-target outcome. Individual failures never abort the batch.
	Terminate(targets []string) *KillReport
}

// OverlaySupervisor manages the out-of-process overlay window: spawning it,
// keeping a control channel open, and detecting silent death via pings.
type OverlaySupervisor interface {
	// EnsureRunning spawns the overlay process if it is absent or dead.
	// Idempotent: a healthy overlay is reused.
	EnsureRunning(ctx context.Context) error

	// Send enqueues a command on the control channel. Returns
	// ErrChannelClosed once the overlay process is gone.
	Send(cmd OverlayCommand) error

	// Alive reports whether the overlay answered a ping recently.
	Alive() bool

	// Shutdown asks the overlay to exit and releases the channel.
	Shutdown() error
}
