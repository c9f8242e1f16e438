// cybercraft-launcher/tui/app.go
package tui

import (
	"context"
	"fmt"

	"github.com/nsf/termbox-go"
	"go.uber.org/zap"

	"cybercraft-launcher/controller"
)

type field int

const (
	fieldUsername field = iota
	fieldPassword
)

// linkKeys maps the number keys to the configured social links.
var linkKeys = map[rune]string{
	'1': "telegram",
	'2': "youtube",
	'3': "discord",
}

// App is the terminal front end of the launcher. Only the login form's
// text lives here; everything else is read from the controller state.
type App struct {
	ctrl   *controller.Controller
	logger *zap.Logger
	ctx    context.Context

	focus    field
	username []rune
	password []rune

	// async runs slow controller calls off the event loop.
	async func(func())
	wake  chan struct{}
}

func NewApp(ctrl *controller.Controller, logger *zap.Logger) *App {
	return &App{
		ctrl:   ctrl,
		logger: logger,
		ctx:    context.Background(),
		async:  func(fn func()) { go fn() },
		wake:   make(chan struct{}, 1),
	}
}

// Run draws until the user closes the launcher or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	a.ctrl.OnChange(a.requestRedraw)
	go a.forwardRedraws(ctx)
	go a.ctrl.Start(ctx)

	for {
		render(a.ctrl.State(), a.form())
		if ctx.Err() != nil {
			return nil
		}
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if a.handle(ev) {
				return nil
			}
		case termbox.EventError:
			return fmt.Errorf("terminal: %w", ev.Err)
		}
	}
}

func (a *App) requestRedraw() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) forwardRedraws(ctx context.Context) {
	for {
		select {
		case <-a.wake:
			termbox.Interrupt()
		case <-ctx.Done():
			termbox.Interrupt()
			return
		}
	}
}

func (a *App) form() loginForm {
	return loginForm{
		username: string(a.username),
		password: len(a.password),
		focus:    a.focus,
	}
}

// handle applies one key press and reports whether the UI should exit.
func (a *App) handle(ev termbox.Event) bool {
	if ev.Key == termbox.KeyCtrlC {
		return a.close()
	}
	st := a.ctrl.State()
	switch {
	case st.Auth == controller.LoggedOut:
		return a.handleLogin(ev)
	case st.Draft != nil:
		a.handleSettings(ev)
		return false
	default:
		return a.handleMain(ev, st)
	}
}

func (a *App) close() bool {
	if err := a.ctrl.Close(); err != nil {
		a.logger.Warn("close application", zap.Error(err))
	}
	return true
}

func (a *App) handleLogin(ev termbox.Event) bool {
	target := &a.username
	if a.focus == fieldPassword {
		target = &a.password
	}
	switch ev.Key {
	case termbox.KeyEsc:
		return a.close()
	case termbox.KeyTab, termbox.KeyArrowDown, termbox.KeyArrowUp:
		a.focus = 1 - a.focus
	case termbox.KeyEnter:
		if a.focus == fieldUsername {
			a.focus = fieldPassword
			return false
		}
		username, password := string(a.username), string(a.password)
		a.async(func() { a.ctrl.Login(a.ctx, username, password) })
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		if n := len(*target); n > 0 {
			*target = (*target)[:n-1]
		}
	case termbox.KeySpace:
		*target = append(*target, ' ')
	default:
		if ev.Ch != 0 {
			*target = append(*target, ev.Ch)
		}
	}
	return false
}

func (a *App) handleSettings(ev termbox.Event) {
	switch {
	case ev.Key == termbox.KeyEsc:
		a.ctrl.CancelSettings()
	case ev.Key == termbox.KeyArrowLeft:
		a.ctrl.AdjustRAM(-1)
	case ev.Key == termbox.KeyArrowRight:
		a.ctrl.AdjustRAM(+1)
	case ev.Key == termbox.KeyEnter:
		a.async(func() { a.ctrl.SaveSettings(a.ctx) })
	case ev.Ch == 'b':
		a.async(func() { a.ctrl.BrowseGamePath(a.ctx) })
	}
}

func (a *App) handleMain(ev termbox.Event, st controller.State) bool {
	switch ev.Key {
	case termbox.KeyArrowUp:
		a.ctrl.Move(-1)
		return false
	case termbox.KeyArrowDown:
		a.ctrl.Move(+1)
		return false
	case termbox.KeyEnter:
		a.play()
		return false
	}

	switch ev.Ch {
	case 'q':
		return a.close()
	case 'p':
		a.play()
	case 's':
		a.ctrl.OpenSettings()
	case 'l':
		a.username, a.password, a.focus = nil, nil, fieldUsername
		a.async(func() { a.ctrl.Logout(a.ctx) })
	case 'm':
		if err := a.ctrl.Minimize(); err != nil {
			a.logger.Warn("minimize", zap.Error(err))
		}
	case 'u':
		if st.Update != nil && st.Update.UpdateAvailable {
			a.async(func() { a.ctrl.ApplyUpdate(a.ctx) })
		}
	default:
		if name, ok := linkKeys[ev.Ch]; ok {
			if err := a.ctrl.OpenLink(name); err != nil {
				a.logger.Warn("open link", zap.String("link", name), zap.Error(err))
			}
		}
	}
	return false
}

func (a *App) play() {
	if err := a.ctrl.Play(a.ctx); err != nil {
		a.logger.Debug("play refused", zap.Error(err))
	}
}
