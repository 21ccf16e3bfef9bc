//go:build !windows

package controller

import "syscall"

// detachAttr detaches the overlay from the controlling terminal so it
// survives the controller's session.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}
}
