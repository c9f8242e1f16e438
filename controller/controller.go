// cybercraft-launcher/controller/controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cybercraft-launcher/backend"
	"cybercraft-launcher/gateway"
	"cybercraft-launcher/selfupdate"
	"cybercraft-launcher/store"
)

const maxLogLines = 1000

var (
	ErrEmptyCredentials = errors.New("username and password are required")
	ErrNotLoggedIn      = errors.New("sign in first")
	ErrNoServer         = errors.New("select a server first")
	ErrUnknownLink      = errors.New("unknown link")
)

// Gateway is the part of the privileged host the UI may call.
type Gateway interface {
	SessionIdentity(ctx context.Context) (*store.SessionIdentity, error)
	SaveSessionIdentity(ctx context.Context, id store.SessionIdentity) error
	Logout(ctx context.Context) error
	Settings(ctx context.Context) (store.Settings, error)
	SaveSettings(ctx context.Context, s store.Settings) error
	MaxMemoryGB(ctx context.Context) (int, error)
	SelectDirectory(ctx context.Context) (gateway.DirectoryResult, error)
	LaunchGame(ctx context.Context, username, version string) (gateway.LaunchResult, error)
	OnGameLog(fn func(line string)) error
	OpenExternalLink(url string) error
	MinimizeWindow() error
	CloseApplication() error
	CheckLauncherUpdate(ctx context.Context) (*selfupdate.Status, error)
	ApplyLauncherUpdate(ctx context.Context) error
}

type Backend interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
	Servers(ctx context.Context) ([]backend.Server, error)
	Profile(ctx context.Context, username string) (*backend.Profile, error)
}

// Controller owns the UI state. Every method is safe to call from the
// render loop; slow work runs in goroutines and reports through onChange.
type Controller struct {
	gateway  Gateway
	backend  Backend
	links    map[string]string
	logger   *zap.Logger
	onChange func()

	mutex sync.Mutex
	state State
	wg    sync.WaitGroup
}

func New(gw Gateway, be Backend, links map[string]string, logger *zap.Logger) *Controller {
	return &Controller{
		gateway:  gw,
		backend:  be,
		links:    links,
		logger:   logger,
		onChange: func() {},
		state:    State{Selected: NoSelection},
	}
}

// OnChange registers the redraw callback. It is called without the state
// lock held.
func (c *Controller) OnChange(fn func()) {
	c.mutex.Lock()
	c.onChange = fn
	c.mutex.Unlock()
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.clone()
}

// Wait blocks until background launches have reported back.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) update(fn func(s *State)) {
	c.mutex.Lock()
	fn(&c.state)
	notify := c.onChange
	c.mutex.Unlock()
	notify()
}

func (c *Controller) setStatus(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.update(func(s *State) { s.Status = msg })
}

func (c *Controller) appendLog(line string) {
	c.update(func(s *State) {
		s.Logs = append(s.Logs, line)
		if len(s.Logs) > maxLogLines {
			s.Logs = append([]string(nil), s.Logs[len(s.Logs)-maxLogLines:]...)
		}
	})
}

// Start subscribes to the game log, loads settings and replays the stored
// credentials. Every failure leaves the UI logged out; none is returned.
func (c *Controller) Start(ctx context.Context) {
	if err := c.gateway.OnGameLog(c.appendLog); err != nil {
		c.logger.Warn("subscribe to game log", zap.Error(err))
	}
	c.loadSettings(ctx)
	c.checkUpdate(ctx)

	id, err := c.gateway.SessionIdentity(ctx)
	if err != nil {
		c.logger.Warn("read stored session", zap.Error(err))
		return
	}
	if id == nil {
		c.logger.Debug("no stored session")
		return
	}
	if err := c.signIn(ctx, id.Username, id.Password); err != nil {
		c.logger.Info("silent sign-in failed", zap.String("username", id.Username), zap.Error(err))
		c.setStatus("Please sign in")
	}
}

func (c *Controller) loadSettings(ctx context.Context) {
	settings, err := c.gateway.Settings(ctx)
	if err != nil {
		c.logger.Warn("load settings", zap.Error(err))
	}
	maxGB, err := c.gateway.MaxMemoryGB(ctx)
	if err != nil {
		c.logger.Warn("read host memory", zap.Error(err))
	}
	c.update(func(s *State) {
		s.Settings = settings
		s.MaxMemoryGB = maxGB
	})
}

func (c *Controller) checkUpdate(ctx context.Context) {
	status, err := c.gateway.CheckLauncherUpdate(ctx)
	if err != nil {
		c.logger.Debug("launcher update check skipped", zap.Error(err))
		return
	}
	c.update(func(s *State) { s.Update = status })
	if status.UpdateAvailable && status.Latest != nil {
		c.setStatus("Launcher %s is available, press u to update", status.Latest.Version)
	}
}

func (c *Controller) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		c.setStatus("Enter username and password")
		return ErrEmptyCredentials
	}
	if err := c.signIn(ctx, username, password); err != nil {
		if errors.Is(err, backend.ErrLoginRejected) {
			c.setStatus("Wrong username or password")
		} else {
			c.setStatus("Could not reach the server")
		}
		return err
	}
	return nil
}

func (c *Controller) signIn(ctx context.Context, username, password string) error {
	result, err := c.backend.Login(ctx, username, password)
	if err != nil {
		c.update(func(s *State) { s.Auth = LoggedOut })
		return err
	}
	id := store.SessionIdentity{
		Username:  username,
		Password:  password,
		AvatarURL: result.AvatarURL,
		Token:     result.Token,
	}
	if err := c.gateway.SaveSessionIdentity(ctx, id); err != nil {
		c.logger.Warn("persist session", zap.Error(err))
	}
	c.update(func(s *State) {
		s.Auth = LoggedIn
		s.Identity = &id
		s.Status = "Signed in as " + username
	})
	c.loadProfile(ctx, username)
	c.loadServers(ctx)
	return nil
}

func (c *Controller) loadProfile(ctx context.Context, username string) {
	profile, err := c.backend.Profile(ctx, username)
	if err != nil {
		c.logger.Debug("load profile", zap.Error(err))
		return
	}
	c.update(func(s *State) { s.SkinURL = profile.SkinURL })
}

// loadServers fetches the list once per sign-in. Selection never refetches.
func (c *Controller) loadServers(ctx context.Context) {
	servers, err := c.backend.Servers(ctx)
	if err != nil {
		c.logger.Warn("load servers", zap.Error(err))
		c.setStatus("Could not load servers")
		return
	}
	c.update(func(s *State) {
		s.Servers = servers
		s.Selected = NoSelection
		if len(servers) > 0 {
			s.Selected = 0
		}
	})
}

func (c *Controller) Logout(ctx context.Context) {
	if err := c.gateway.Logout(ctx); err != nil {
		c.logger.Warn("logout", zap.Error(err))
	}
	c.update(func(s *State) {
		s.Auth = LoggedOut
		s.Identity = nil
		s.SkinURL = ""
		s.Servers = nil
		s.Selected = NoSelection
		s.Status = "Signed out"
	})
}

// Select changes the selected server. It never touches the network.
func (c *Controller) Select(i int) {
	c.update(func(s *State) {
		if i >= 0 && i < len(s.Servers) {
			s.Selected = i
		}
	})
}

// Move shifts the selection by delta, clamped to the list.
func (c *Controller) Move(delta int) {
	c.update(func(s *State) {
		if len(s.Servers) == 0 {
			return
		}
		next := s.Selected + delta
		if next < 0 {
			next = 0
		}
		if next >= len(s.Servers) {
			next = len(s.Servers) - 1
		}
		s.Selected = next
	})
}

// Play launches the selected server's version in the background. The
// launch's own output arrives on the game log.
func (c *Controller) Play(ctx context.Context) error {
	c.mutex.Lock()
	st := c.state
	c.mutex.Unlock()

	if st.Auth != LoggedIn || st.Identity == nil {
		c.setStatus("Sign in first")
		return ErrNotLoggedIn
	}
	server, ok := st.SelectedServer()
	if !ok {
		c.setStatus("Select a server first")
		return ErrNoServer
	}

	username := st.Identity.Username
	c.update(func(s *State) {
		s.Launching = true
		s.Status = "Launching " + server.Name
	})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.gateway.LaunchGame(ctx, username, server.Version)
		c.update(func(s *State) {
			s.Launching = false
			switch {
			case err != nil:
				s.Status = "Launch failed: " + err.Error()
			case !res.Success:
				s.Status = "Launch failed: " + res.Message
			default:
				s.Status = server.Name + " is starting"
			}
		})
	}()
	return nil
}

func (c *Controller) OpenLink(name string) error {
	link, ok := c.links[name]
	if !ok || link == "" {
		return fmt.Errorf("%w: %s", ErrUnknownLink, name)
	}
	return c.gateway.OpenExternalLink(link)
}

func (c *Controller) Minimize() error { return c.gateway.MinimizeWindow() }

func (c *Controller) Close() error { return c.gateway.CloseApplication() }

func (c *Controller) ApplyUpdate(ctx context.Context) error {
	c.setStatus("Downloading launcher update")
	if err := c.gateway.ApplyLauncherUpdate(ctx); err != nil {
		c.setStatus("Update failed: %v", err)
		return err
	}
	c.setStatus("Restarting to finish the update")
	return nil
}
