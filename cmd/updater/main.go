// cybercraft-launcher/cmd/updater/main.go
//
// updater replaces the launcher executable with a staged build once the
// launcher has exited, then starts it again.
//
//	updater <current executable> <staged executable>
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"cybercraft-launcher/config"
	"cybercraft-launcher/logs"
)

const (
	removeAttempts = 10
	removeInterval = 500 * time.Millisecond
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	if len(os.Args) < 3 {
		logger.Error("usage: updater <current executable> <staged executable>")
		os.Exit(2)
	}
	if err := swap(os.Args[1], os.Args[2], logger); err != nil {
		logger.Error("update failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("update applied, updater exiting")
}

func newLogger() *zap.Logger {
	path := ""
	if dir, err := config.DataDir(); err == nil {
		path = filepath.Join(dir, "updater.log")
	}
	logger, err := logs.New("info", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "updater: logger:", err)
		return zap.NewNop()
	}
	return logger.Named("updater")
}

func swap(oldPath, newPath string, logger *zap.Logger) error {
	logger.Info("updater started", zap.String("current", oldPath), zap.String("staged", newPath))
	if _, err := os.Stat(newPath); err != nil {
		return fmt.Errorf("staged build: %w", err)
	}

	// The launcher may still hold its executable open for a moment.
	backup := oldPath + ".old"
	os.Remove(backup)
	var err error
	for attempt := 1; attempt <= removeAttempts; attempt++ {
		if err = os.Rename(oldPath, backup); err == nil || errors.Is(err, os.ErrNotExist) {
			break
		}
		logger.Debug("current executable still busy", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(removeInterval)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("move current executable aside: %w", err)
	}

	if err := os.Rename(newPath, oldPath); err != nil {
		if restoreErr := os.Rename(backup, oldPath); restoreErr != nil {
			logger.Error("restore previous executable", zap.Error(restoreErr))
		}
		return fmt.Errorf("install staged build: %w", err)
	}
	os.Remove(backup)

	logger.Info("restarting launcher")
	if err := exec.Command(oldPath).Start(); err != nil {
		return fmt.Errorf("restart launcher: %w", err)
	}
	return nil
}
