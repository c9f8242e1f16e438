// cybercraft-launcher/ui/dialog.go
package ui

import (
	"errors"
	"sync"
	"time"

	"github.com/faiface/mainthread"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

var ErrDialogBusy = errors.New("a folder picker is already open")

type dialogResponse struct {
	path string
	err  error
}

// Dialogs serializes native folder pickers onto the main OS thread, which
// some platforms require for any window work.
type Dialogs struct {
	logger    *zap.Logger
	title     string
	mutex     sync.Mutex
	requests  chan struct{}
	responses chan dialogResponse
	browse    func(title string) (string, error)
}

func NewDialogs(title string, logger *zap.Logger) *Dialogs {
	return &Dialogs{
		logger:    logger,
		title:     title,
		requests:  make(chan struct{}),
		responses: make(chan dialogResponse),
		browse: func(title string) (string, error) {
			return dialog.Directory().Title(title).Browse()
		},
	}
}

// Manage serves picker requests until Close is called. It must run in its
// own goroutine while mainthread.Run owns the main thread.
func (d *Dialogs) Manage(ready chan<- struct{}) {
	close(ready)
	for range d.requests {
		var resp dialogResponse
		mainthread.Call(func() {
			resp.path, resp.err = d.browse(d.title)
		})
		select {
		case d.responses <- resp:
		case <-time.After(2 * time.Second):
			d.logger.Warn("folder picker response dropped, caller gone")
		}
	}
	d.logger.Info("dialog manager stopped")
}

func (d *Dialogs) Close() {
	close(d.requests)
}

// SelectDirectory opens the native folder picker. A cancelled picker is
// reported as cancelled == true with a nil error.
func (d *Dialogs) SelectDirectory() (path string, cancelled bool, err error) {
	if !d.mutex.TryLock() {
		return "", false, ErrDialogBusy
	}
	defer d.mutex.Unlock()

	d.requests <- struct{}{}
	resp := <-d.responses

	if errors.Is(resp.err, dialog.ErrCancelled) || (resp.err == nil && resp.path == "") {
		return "", true, nil
	}
	if resp.err != nil {
		return "", false, resp.err
	}
	return resp.path, false, nil
}
