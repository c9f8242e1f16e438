// cybercraft-launcher/gateway/gateway.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cybercraft-launcher/game"
	"cybercraft-launcher/selfupdate"
	"cybercraft-launcher/store"
)

const errorLinePrefix = "[ERROR] "

var (
	ErrUnknownOp   = errors.New("unknown operation")
	ErrNotCallable = errors.New("stream operations are subscribed, not called")
	ErrNoUpdater   = errors.New("launcher updates are not configured")
)

var (
	validate      = validator.New()
	shutdownDelay = 500 * time.Millisecond
)

// Host is what the gateway needs from the operating system.
type Host interface {
	MinimizeWindow() error
	OpenExternal(url string) error
	SelectDirectory() (path string, cancelled bool, err error)
	TotalMemoryGB() int
}

type Launcher interface {
	Launch(req game.Request, sink func(line string)) error
}

type Updater interface {
	Check(ctx context.Context) (*selfupdate.Status, error)
	Apply(ctx context.Context) error
}

type handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Gateway is the trusted side of the privilege boundary. Every call from
// the UI goes through Dispatch.
type Gateway struct {
	store    *store.Store
	host     Host
	launcher Launcher
	updater  Updater
	feed     *LogFeed
	metrics  *Metrics
	logger   *zap.Logger
	handlers map[Op]handler

	shutdownOnce sync.Once
	done         chan struct{}
}

type Deps struct {
	Store    *store.Store
	Host     Host
	Launcher Launcher
	// Updater is optional.
	Updater  Updater
	Metrics  *Metrics
	Logger   *zap.Logger
}

func New(deps Deps) *Gateway {
	g := &Gateway{
		store:    deps.Store,
		host:     deps.Host,
		launcher: deps.Launcher,
		updater:  deps.Updater,
		feed:     NewLogFeed(),
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		done:     make(chan struct{}),
	}
	g.handlers = map[Op]handler{
		OpMinimizeWindow:      g.minimizeWindow,
		OpCloseApplication:    g.closeApplication,
		OpOpenExternalLink:    g.openExternalLink,
		OpGetSessionIdentity:  g.getSessionIdentity,
		OpSaveSessionIdentity: g.saveSessionIdentity,
		OpLogout:              g.logout,
		OpGetSettings:         g.getSettings,
		OpSaveSettings:        g.saveSettings,
		OpGetMaxMemoryGB:      g.getMaxMemoryGB,
		OpSelectDirectory:     g.selectDirectory,
		OpLaunchGame:          g.launchGame,
		OpCheckLauncherUpdate: g.checkLauncherUpdate,
		OpApplyLauncherUpdate: g.applyLauncherUpdate,
	}
	return g
}

// Feed is the game log stream behind OpGameLogStream.
func (g *Gateway) Feed() *LogFeed { return g.feed }

// Done is closed once the UI asked the application to close.
func (g *Gateway) Done() <-chan struct{} { return g.done }

func (g *Gateway) Shutdown() {
	g.shutdownOnce.Do(func() {
		g.logger.Info("shutdown requested")
		close(g.done)
	})
}

// Dispatch runs one non-stream op. It never panics: a panicking handler is
// reported as an error. Fire-and-forget ops return a nil result.
func (g *Gateway) Dispatch(ctx context.Context, op Op, payload json.RawMessage) (result json.RawMessage, err error) {
	kind, ok := Lookup(op)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	if kind == Stream {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, op)
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("operation panicked", zap.String("op", string(op)), zap.Any("panic", r))
			result, err = nil, fmt.Errorf("%s: internal error", op)
		}
		if g.metrics != nil {
			g.metrics.observe(op, err, started)
		}
	}()

	res, err := g.handlers[op](ctx, payload)
	if err != nil {
		g.logger.Warn("operation failed", zap.String("op", string(op)), zap.Error(err))
		return nil, err
	}
	if kind == FireAndForget {
		return nil, nil
	}
	return json.Marshal(res)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (g *Gateway) minimizeWindow(context.Context, json.RawMessage) (any, error) {
	return nil, g.host.MinimizeWindow()
}

func (g *Gateway) closeApplication(context.Context, json.RawMessage) (any, error) {
	g.Shutdown()
	return nil, nil
}

func (g *Gateway) openExternalLink(_ context.Context, payload json.RawMessage) (any, error) {
	var req OpenExternalLinkRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	return nil, g.host.OpenExternal(req.URL)
}

func (g *Gateway) getSessionIdentity(context.Context, json.RawMessage) (any, error) {
	return g.store.Session()
}

func (g *Gateway) saveSessionIdentity(_ context.Context, payload json.RawMessage) (any, error) {
	var id store.SessionIdentity
	if err := decode(payload, &id); err != nil {
		return nil, err
	}
	if err := g.store.SaveSession(id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (g *Gateway) logout(context.Context, json.RawMessage) (any, error) {
	if err := g.store.DeleteSession(); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

// currentSettings returns the saved settings or host-derived defaults. The
// defaults are not persisted until the UI saves them.
func (g *Gateway) currentSettings() (store.Settings, error) {
	settings, found, err := g.store.Settings()
	if err != nil {
		return store.Settings{}, err
	}
	if !found {
		return store.DefaultSettings(g.host.TotalMemoryGB(), g.store.Dir()), nil
	}
	return settings, nil
}

func (g *Gateway) getSettings(context.Context, json.RawMessage) (any, error) {
	return g.currentSettings()
}

func (g *Gateway) saveSettings(_ context.Context, payload json.RawMessage) (any, error) {
	var settings store.Settings
	if err := decode(payload, &settings); err != nil {
		return nil, err
	}
	if err := g.store.SaveSettings(settings); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (g *Gateway) getMaxMemoryGB(context.Context, json.RawMessage) (any, error) {
	return g.host.TotalMemoryGB(), nil
}

func (g *Gateway) selectDirectory(context.Context, json.RawMessage) (any, error) {
	path, cancelled, err := g.host.SelectDirectory()
	if err != nil {
		return nil, err
	}
	if cancelled {
		return DirectoryResult{Cancelled: true}, nil
	}
	return DirectoryResult{Path: path}, nil
}

// launchGame never fails across the boundary: every setup error becomes a
// failure result plus one error line on the log stream.
func (g *Gateway) launchGame(_ context.Context, payload json.RawMessage) (any, error) {
	var req LaunchGameRequest
	if err := decode(payload, &req); err != nil {
		return g.launchFailure(err), nil
	}
	if err := validate.Struct(req); err != nil {
		return g.launchFailure(fmt.Errorf("invalid launch request: %w", err)), nil
	}
	settings, err := g.currentSettings()
	if err != nil {
		return g.launchFailure(err), nil
	}

	err = g.safeLaunch(game.Request{
		Username:     req.Identity.Username,
		Version:      req.Version,
		RAMGigabytes: settings.RAMGigabytes,
		Root:         settings.GamePath,
	})
	if err != nil {
		return g.launchFailure(err), nil
	}
	return LaunchResult{Success: true}, nil
}

func (g *Gateway) safeLaunch(req game.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("launch aborted: %v", r)
		}
	}()
	return g.launcher.Launch(req, g.publish)
}

func (g *Gateway) publish(line string) {
	if g.metrics != nil {
		g.metrics.logLines.Inc()
	}
	g.feed.Publish(line)
}

func (g *Gateway) launchFailure(err error) LaunchResult {
	g.logger.Warn("launch failed", zap.Error(err))
	g.publish(errorLinePrefix + err.Error())
	return LaunchResult{Success: false, Message: err.Error()}
}

func (g *Gateway) checkLauncherUpdate(ctx context.Context, _ json.RawMessage) (any, error) {
	if g.updater == nil {
		return nil, ErrNoUpdater
	}
	return g.updater.Check(ctx)
}

func (g *Gateway) applyLauncherUpdate(ctx context.Context, _ json.RawMessage) (any, error) {
	if g.updater == nil {
		return nil, ErrNoUpdater
	}
	if err := g.updater.Apply(ctx); err != nil {
		return nil, err
	}
	// Give the reply time to reach the UI before the host exits.
	time.AfterFunc(shutdownDelay, g.Shutdown)
	return OKResult{OK: true}, nil
}
