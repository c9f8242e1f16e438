// cybercraft-launcher/ui/host.go
package ui

import (
	"go.uber.org/zap"

	"cybercraft-launcher/utils"
)

// Host bundles the native capabilities the gateway exposes to the UI.
type Host struct {
	dialogs *Dialogs
	logger  *zap.Logger
}

func NewHost(dialogs *Dialogs, logger *zap.Logger) *Host {
	return &Host{dialogs: dialogs, logger: logger}
}

func (h *Host) MinimizeWindow() error {
	return MinimizeWindow()
}

func (h *Host) OpenExternal(url string) error {
	h.logger.Info("opening external link", zap.String("url", url))
	return utils.OpenBrowser(url)
}

func (h *Host) SelectDirectory() (string, bool, error) {
	return h.dialogs.SelectDirectory()
}

func (h *Host) TotalMemoryGB() int {
	return utils.TotalMemoryGB()
}
