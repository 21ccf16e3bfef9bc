//go:build windows

package controller

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachAttr detaches the overlay from the controller's console so no
// console window flashes up and the overlay survives the controller.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
}
