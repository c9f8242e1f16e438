// cybercraft-launcher/config/watcher.go
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the host configuration current while the launcher runs.
// Edits to config.yaml are picked up by the next launch.
type Watcher struct {
	dir     string
	logger  *zap.Logger
	fs      *fsnotify.Watcher
	mutex   sync.RWMutex
	current Data
}

func NewWatcher(dir string, initial Data, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Editors replace files by rename, so the directory is watched instead
	// of the file itself.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:     dir,
		logger:  logger,
		fs:      fsw,
		current: initial,
	}, nil
}

func (w *Watcher) Get() Data {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.current
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.dir)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous configuration", zap.Error(err))
		return
	}
	w.mutex.Lock()
	w.current = cfg
	w.mutex.Unlock()
	w.logger.Info("configuration reloaded",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("launchCommand", cfg.Launch.Command),
	)
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
