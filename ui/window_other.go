//go:build !windows

// cybercraft-launcher/ui/window_other.go
package ui

import (
	"errors"
	"runtime"
)

// MinimizeWindow is only supported for the Windows console host; terminal
// emulators elsewhere do not expose their window to child processes.
func MinimizeWindow() error {
	return errors.New("minimizing the terminal is not supported on " + runtime.GOOS)
}
