// Package infra implements infrastructure concerns (process, profile and
// config storage).
package infra

import (
	"github.com/shirou/gopsutil/v3/process"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// Processes enumerates all running processes. Processes that exit mid-scan
// are skipped rather than reported as errors.
func (pm *ProcessManagerImpl) Processes() ([]domain.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		infos = append(infos, domain.ProcessInfo{PID: p.Pid, Name: name})
	}

	return infos, nil
}

// Kill terminates a process by PID (SIGKILL on Unix, TerminateProcess on
// Windows).
func (pm *ProcessManagerImpl) Kill(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int32) bool {
	exists, err := process.PidExists(pid)
	return err == nil && exists
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
