// cybercraft-launcher/ui/window_windows.go
package ui

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const swMinimize = 6

var (
	procGetConsoleWindow = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetConsoleWindow")
	procShowWindow       = windows.NewLazySystemDLL("user32.dll").NewProc("ShowWindow")
)

// MinimizeWindow minimizes the console window the UI process draws in.
func MinimizeWindow() error {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return fmt.Errorf("no console window attached")
	}
	procShowWindow.Call(hwnd, swMinimize)
	return nil
}
