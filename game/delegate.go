// cybercraft-launcher/game/delegate.go
package game

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cybercraft-launcher/config"
)

const (
	defaultMaxMemory = "2G"
	startMessage     = "Starting Minecraft..."
)

// EventHandler receives the bootstrapper's asynchronous events.
type EventHandler interface {
	Debug(msg string)
	Data(p []byte)
}

// Client is the external game bootstrapper. Launch returns once the launch
// has been initiated; events keep arriving after it returns.
type Client interface {
	Launch(opts Options, events EventHandler) error
}

type Request struct {
	Username     string `json:"username" validate:"required"`
	Version      string `json:"version" validate:"required"`
	RAMGigabytes int    `json:"ramGigabytes" validate:"min=0"`
	Root         string `json:"root" validate:"required"`
}

// Delegate prepares the game directory and hands the launch to the
// bootstrapper. It does not track the game process: a nil error means the
// launch was initiated, not that the game is running.
type Delegate struct {
	client  Client
	profile func() config.Launch
	logger  *zap.Logger
}

var validate = validator.New()

func NewDelegate(client Client, profile func() config.Launch, logger *zap.Logger) *Delegate {
	return &Delegate{client: client, profile: profile, logger: logger}
}

func (d *Delegate) Launch(req Request, sink func(line string)) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid launch request: %w", err)
	}

	cacheDir := filepath.Join(req.Root, "cache", "json")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("prepare game directory %s: %w", req.Root, err)
	}

	profile := d.profile()
	maxMemory := defaultMaxMemory
	if req.RAMGigabytes > 0 {
		maxMemory = fmt.Sprintf("%dG", req.RAMGigabytes)
	}
	opts := Options{
		Credential: OfflineCredential(req.Username),
		Root:       req.Root,
		Version: Version{
			Number: req.Version,
			Type:   profile.VersionType,
		},
		Memory: Memory{
			Min: profile.MinMemory,
			Max: maxMemory,
		},
	}

	d.logger.Info("launching game",
		zap.String("username", req.Username),
		zap.String("version", req.Version),
		zap.String("root", req.Root),
		zap.String("memory", opts.Memory.Max),
	)
	sink(startMessage)
	if err := d.client.Launch(opts, sinkHandler{sink: sink}); err != nil {
		return fmt.Errorf("start bootstrapper: %w", err)
	}
	return nil
}

type sinkHandler struct {
	sink func(string)
}

func (h sinkHandler) Debug(msg string) { h.sink("[DEBUG] " + msg) }

func (h sinkHandler) Data(p []byte) { h.sink(string(p)) }
