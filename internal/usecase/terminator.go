// Package usecase contains application business logic.
package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// protectedProcesses are Windows-critical processes that are never killed,
// no matter what a profile asks for. Killing these can crash the system.
var protectedProcesses = []string{
	"csrss.exe",    // Client Server Runtime
	"dwm.exe",      // Desktop Window Manager
	"explorer.exe", // Windows Explorer (shell)
	"lsass.exe",    // Local Security Authority
	"services.exe", // Services Control Manager
	"smss.exe",     // Session Manager
	"system",       // System process
	"wininit.exe",  // Windows Init
	"winlogon.exe", // Windows Logon
	"svchost.exe",  // Service Host (critical services)
}

// TerminatorImpl implements domain.Terminator with a fixed safety blocklist.
type TerminatorImpl struct {
	processManager domain.ProcessManager
	protected      map[string]struct{}
	logger         *zap.Logger
}

// NewTerminator creates a terminator guarded by the default blocklist.
func NewTerminator(pm domain.ProcessManager, logger *zap.Logger) domain.Terminator {
	return NewTerminatorWithProtected(pm, protectedProcesses, logger)
}

// NewTerminatorWithProtected creates a terminator with a custom blocklist
// (for testing).
func NewTerminatorWithProtected(pm domain.ProcessManager, protected []string, logger *zap.Logger) domain.Terminator {
	set := make(map[string]struct{}, len(protected))
	for _, name := range protected {
		set[NormalizeProcessName(name)] = struct{}{}
	}
	return &TerminatorImpl{
		processManager: pm,
		protected:      set,
		logger:         logger,
	}
}

// NormalizeProcessName lowercases a process name and strips one trailing
// ".exe" so "Notepad.EXE" and "notepad" compare equal.
func NormalizeProcessName(name string) string {
	lower := strings.ToLower(name)
	return strings.TrimSuffix(lower, ".exe")
}

// IsProtected reports whether the default blocklist covers the given name.
func IsProtected(name string) bool {
	normalized := NormalizeProcessName(name)
	for _, p := range protectedProcesses {
		if NormalizeProcessName(p) == normalized {
			return true
		}
	}
	return false
}

// Terminate classifies each target and kills every matching PID. Matching is
// exact after normalization; no substring or glob matching, so a partial
// name can never take down unrelated processes. One PID's failure never
// aborts the rest of the batch.
func (t *TerminatorImpl) Terminate(targets []string) *domain.KillReport {
	report := &domain.KillReport{}

	procs, err := t.processManager.Processes()
	if err != nil {
		t.logger.Warn("failed to enumerate processes", zap.Error(err))
		// Without an enumeration nothing can match; report every
		// non-protected target as not found.
		for _, target := range targets {
			if _, skip := t.protected[NormalizeProcessName(target)]; skip {
				report.BlocklistSkipped = append(report.BlocklistSkipped, target)
			} else {
				report.NotFound = append(report.NotFound, target)
			}
		}
		return report
	}

	for _, target := range targets {
		normalized := NormalizeProcessName(target)

		if _, skip := t.protected[normalized]; skip {
			t.logger.Info("skipping protected process", zap.String("name", target))
			report.BlocklistSkipped = append(report.BlocklistSkipped, target)
			continue
		}

		found := false
		for _, proc := range procs {
			if NormalizeProcessName(proc.Name) != normalized {
				continue
			}
			found = true

			if err := t.processManager.Kill(proc.PID); err != nil {
				t.logger.Warn("failed to kill process",
					zap.String("name", target),
					zap.Int32("pid", proc.PID),
					zap.Error(err))
				report.Failed = append(report.Failed, domain.KillFailure{
					Name: target,
					PID:  proc.PID,
					Err:  err,
				})
			} else {
				t.logger.Info("killed process",
					zap.String("name", target),
					zap.Int32("pid", proc.PID))
				report.Killed = append(report.Killed, domain.KilledProcess{
					Name: target,
					PID:  proc.PID,
				})
			}
		}

		if !found {
			report.NotFound = append(report.NotFound, target)
		}
	}

	return report
}

// Ensure TerminatorImpl implements domain.Terminator.
var _ domain.Terminator = (*TerminatorImpl)(nil)
