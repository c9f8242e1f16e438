// cybercraft-launcher/selfupdate/update.go
package selfupdate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"cybercraft-launcher/backend"
	"cybercraft-launcher/utils"
)

// Set at build time with -ldflags "-X cybercraft-launcher/selfupdate.Version=...".
var (
	Version     = "1.0.0"
	BuildNumber = "1"
)

var (
	ErrUpToDate        = errors.New("launcher is already up to date")
	ErrChecksum        = errors.New("update checksum mismatch")
	ErrUpdaterNotFound = errors.New("updater helper not found next to the launcher")
)

type ManifestSource interface {
	LauncherManifest(ctx context.Context) (*backend.Manifest, error)
}

type Status struct {
	UpdateAvailable bool              `json:"updateAvailable"`
	CurrentVersion  string            `json:"currentVersion"`
	CurrentBuild    int               `json:"currentBuild"`
	Latest          *backend.Manifest `json:"latest,omitempty"`
}

type Updater struct {
	source     ManifestSource
	logger     *zap.Logger
	executable func() (string, error)
	download   func(ctx context.Context, url string) ([]byte, error)
	start      func(name string, args ...string) error
}

func New(source ManifestSource, logger *zap.Logger) *Updater {
	return &Updater{
		source:     source,
		logger:     logger,
		executable: os.Executable,
		download: func(ctx context.Context, url string) ([]byte, error) {
			return utils.DownloadFirst(ctx, url)
		},
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

func currentBuild() int {
	var n int
	fmt.Sscanf(BuildNumber, "%d", &n)
	return n
}

// Check compares the published build number with the running one.
func (u *Updater) Check(ctx context.Context) (*Status, error) {
	latest, err := u.source.LauncherManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch launcher manifest: %w", err)
	}
	status := &Status{
		CurrentVersion: Version,
		CurrentBuild:   currentBuild(),
	}
	if latest.BuildNumber > status.CurrentBuild {
		status.UpdateAvailable = true
		status.Latest = latest
	}
	return status, nil
}

// Apply downloads and verifies the published build, stages it beside the
// running executable and starts the updater helper that swaps the files
// once this process exits. The caller is expected to shut down afterwards.
func (u *Updater) Apply(ctx context.Context) error {
	status, err := u.Check(ctx)
	if err != nil {
		return err
	}
	if !status.UpdateAvailable {
		return ErrUpToDate
	}
	latest := status.Latest
	u.logger.Info("downloading launcher update", zap.String("version", latest.Version), zap.Int("build", latest.BuildNumber))

	payload, err := u.download(ctx, latest.Artifact.URL)
	if err != nil {
		return fmt.Errorf("download update: %w", err)
	}
	sum := sha256.Sum256(payload)
	if !strings.EqualFold(hex.EncodeToString(sum[:]), latest.Artifact.SHA256) {
		return fmt.Errorf("%w: expected %s", ErrChecksum, latest.Artifact.SHA256)
	}

	currentExePath, err := u.executable()
	if err != nil {
		return fmt.Errorf("locate running executable: %w", err)
	}
	dir := filepath.Dir(currentExePath)
	updaterPath := filepath.Join(dir, executableName("updater"))
	if _, err := os.Stat(updaterPath); err != nil {
		return fmt.Errorf("%w: %s", ErrUpdaterNotFound, updaterPath)
	}

	newExePath := filepath.Join(dir, executableName("cybercraft-launcher_new"))
	if err := os.WriteFile(newExePath, payload, 0755); err != nil {
		return fmt.Errorf("stage update: %w", err)
	}
	u.logger.Info("update staged", zap.String("path", newExePath))

	if err := u.start(updaterPath, currentExePath, newExePath); err != nil {
		os.Remove(newExePath)
		return fmt.Errorf("start updater helper: %w", err)
	}
	u.logger.Info("updater helper started, launcher will exit")
	return nil
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
