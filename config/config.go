// cybercraft-launcher/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppDirName is the directory under os.UserConfigDir() that holds every
	// file the launcher owns.
	AppDirName = "CyberCraft"

	FileName    = "config.yaml"
	EnvFileName = ".env"
)

type Backend struct {
	BaseURL string        `yaml:"baseUrl" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Launch describes the external bootstrapper the launch delegate execs.
// Args are text/template strings evaluated against launch.Options.
type Launch struct {
	Command     string   `yaml:"command" validate:"required"`
	Args        []string `yaml:"args"`
	MinMemory   string   `yaml:"minMemory" validate:"required"`
	VersionType string   `yaml:"versionType" validate:"required"`
}

type Data struct {
	Backend  Backend           `yaml:"backend"`
	Launch   Launch            `yaml:"launch"`
	Links    map[string]string `yaml:"links"`
	LogLevel string            `yaml:"logLevel" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

func Default() Data {
	return Data{
		Backend: Backend{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 15 * time.Second,
		},
		Launch: Launch{
			Command: "portablemc",
			Args: []string{
				"--main-dir", "{{.Root}}",
				"start",
				"--jvm-args=-Xms{{.Memory.Min}} -Xmx{{.Memory.Max}}",
				"-u", "{{.Credential.Name}}",
				"{{.Version.Number}}",
			},
			MinMemory:   "1G",
			VersionType: "release",
		},
		Links: map[string]string{
			"telegram": "http://t.me/cybecraft_uz",
			"youtube":  "http://www.youtube.com/@CyberCraft_UZ",
			"discord":  "http://discord.gg/cybercraft",
		},
		LogLevel: "info",
	}
}

// DataDir returns the per-user application directory, creating it if needed.
func DataDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config directory not found: %w", err)
	}
	dir := filepath.Join(userConfigDir, AppDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// Load layers, lowest priority first: defaults, dir/config.yaml, dir/.env,
// CYBERCRAFT_* environment variables. Missing files are not errors.
func Load(dir string) (Data, error) {
	cfg := Default()

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Data{}, fmt.Errorf("parse %s: %w", FileName, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Data{}, fmt.Errorf("read %s: %w", FileName, err)
	}

	envFile := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Data{}, fmt.Errorf("load %s: %w", EnvFileName, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Data{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Data{}, err
	}
	return cfg, nil
}

// FromEnv builds the configuration of the UI process, which never reads the
// data directory itself.
func FromEnv() (Data, error) {
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Data{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Data{}, err
	}
	return cfg, nil
}

func (d Data) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyEnv(cfg *Data) error {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvBackendTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBackendTimeout, err)
		}
		cfg.Backend.Timeout = d
	}
	if v := os.Getenv(EnvLaunchCommand); v != "" {
		cfg.Launch.Command = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}
