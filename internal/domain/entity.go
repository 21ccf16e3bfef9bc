// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Offset bounds for crosshair positioning, in pixels from screen center.
const (
	MinOffset = -500
	MaxOffset = 500
)

// MaxProfileNameLen bounds profile names for display and file safety.
const MaxProfileNameLen = 50

// Profile is a gaming profile: which processes to kill on activation and
// how to show the crosshair overlay. Persisted as JSON by the profile store.
type Profile struct {
	Name               string   `json:"name"`
	ProcessesToKill    []string `json:"processes_to_kill"`
	CrosshairImagePath string   `json:"crosshair_image_path,omitempty"`
	CrosshairXOffset   int      `json:"crosshair_x_offset"`
	CrosshairYOffset   int      `json:"crosshair_y_offset"`
	OverlayEnabled     bool     `json:"overlay_enabled"`
}

// HasCrosshair reports whether the profile configures a crosshair image.
func (p *Profile) HasCrosshair() bool {
	return p.CrosshairImagePath != ""
}

// Validate checks the profile's structural invariants: name length, offset
// bounds and the crosshair path extension. File existence is not checked
// here; a missing image surfaces when the overlay tries to load it.
func (p *Profile) Validate() error {
	if p.Name == "" || len(p.Name) > MaxProfileNameLen {
		return fmt.Errorf("profile name must be between 1 and %d characters", MaxProfileNameLen)
	}
	if p.CrosshairXOffset < MinOffset || p.CrosshairXOffset > MaxOffset {
		return fmt.Errorf("x offset must be between %d and %d pixels", MinOffset, MaxOffset)
	}
	if p.CrosshairYOffset < MinOffset || p.CrosshairYOffset > MaxOffset {
		return fmt.Errorf("y offset must be between %d and %d pixels", MinOffset, MaxOffset)
	}
	if p.CrosshairImagePath != "" && !strings.EqualFold(filepath.Ext(p.CrosshairImagePath), ".png") {
		return fmt.Errorf("crosshair image must be a PNG file: %s", p.CrosshairImagePath)
	}
	return nil
}

// AppConfig stores the small amount of runtime state that survives restarts.
// Empty ActiveProfile means no profile is active.
type AppConfig struct {
	ActiveProfile  string `json:"active_profile,omitempty"`
	OverlayVisible bool   `json:"overlay_visible"`
}

// ProcessInfo describes one running process as seen by the enumerator.
type ProcessInfo struct {
	PID  int32
	Name string
}

// KilledProcess records a single successful termination.
type KilledProcess struct {
	Name string
	PID  int32
}

// KillFailure records a single PID that could not be terminated.
type KillFailure struct {
	Name string
	PID  int32
	Err  error
}

// KillReport captures the outcome of one termination batch.
// Built fresh per call and returned to the caller; never retained.
type KillReport struct {
	Killed           []KilledProcess
	Failed           []KillFailure
	NotFound         []string
	BlocklistSkipped []string
}

// Empty reports whether the batch had nothing to say at all.
func (r *KillReport) Empty() bool {
	return len(r.Killed) == 0 && len(r.Failed) == 0 &&
		len(r.NotFound) == 0 && len(r.BlocklistSkipped) == 0
}

// CommandKind tags an OverlayCommand variant.
type CommandKind string

const (
	CmdSetImage   CommandKind = "set_image"
	CmdSetOffset  CommandKind = "set_offset"
	CmdSetVisible CommandKind = "set_visible"
	CmdShutdown   CommandKind = "shutdown"
	CmdPing       CommandKind = "ping"
)

// OverlayCommand is one instruction for the overlay process. Constructed by
// the controller, consumed exactly once by the overlay. Only the fields
// relevant to Kind are populated.
type OverlayCommand struct {
	Kind      CommandKind `json:"kind"`
	ImagePath string      `json:"image_path,omitempty"`
	XOffset   int         `json:"x_offset,omitempty"`
	YOffset   int         `json:"y_offset,omitempty"`
	Visible   bool        `json:"visible,omitempty"`
}

// SetImage builds a command replacing the overlay's crosshair image.
func SetImage(path string) OverlayCommand {
	return OverlayCommand{Kind: CmdSetImage, ImagePath: path}
}

// SetOffset builds a command repositioning the crosshair relative to center.
func SetOffset(x, y int) OverlayCommand {
	return OverlayCommand{Kind: CmdSetOffset, XOffset: x, YOffset: y}
}

// SetVisible builds a command toggling overlay visibility.
func SetVisible(visible bool) OverlayCommand {
	return OverlayCommand{Kind: CmdSetVisible, Visible: visible}
}

// Shutdown builds the command that makes the overlay process exit.
func Shutdown() OverlayCommand {
	return OverlayCommand{Kind: CmdShutdown}
}

// Ping builds the liveness probe command.
func Ping() OverlayCommand {
	return OverlayCommand{Kind: CmdPing}
}
