package selfupdate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cybercraft-launcher/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticManifest struct {
	m   *backend.Manifest
	err error
}

func (s staticManifest) LauncherManifest(context.Context) (*backend.Manifest, error) {
	return s.m, s.err
}

func manifest(build int, payload []byte) *backend.Manifest {
	m := &backend.Manifest{Version: "9.9.9", BuildNumber: build}
	sum := sha256.Sum256(payload)
	m.Artifact.URL = "http://cdn.example/launcher"
	m.Artifact.SHA256 = hex.EncodeToString(sum[:])
	return m
}

type started struct {
	name string
	args []string
}

func newTestUpdater(t *testing.T, m *backend.Manifest, payload []byte) (*Updater, string, *[]started) {
	t.Helper()
	dir := t.TempDir()
	exe := filepath.Join(dir, executableName("cybercraft-launcher"))
	require.NoError(t, os.WriteFile(exe, []byte("old"), 0755))

	var calls []started
	u := New(staticManifest{m: m}, zap.NewNop())
	u.executable = func() (string, error) { return exe, nil }
	u.download = func(context.Context, string) ([]byte, error) { return payload, nil }
	u.start = func(name string, args ...string) error {
		calls = append(calls, started{name: name, args: args})
		return nil
	}
	return u, dir, &calls
}

func TestCheckComparesBuildNumbers(t *testing.T) {
	BuildNumber = "5"
	defer func() { BuildNumber = "1" }()

	u := New(staticManifest{m: manifest(6, nil)}, zap.NewNop())
	status, err := u.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, status.UpdateAvailable)
	assert.Equal(t, 5, status.CurrentBuild)
	assert.Equal(t, 6, status.Latest.BuildNumber)

	u = New(staticManifest{m: manifest(5, nil)}, zap.NewNop())
	status, err = u.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, status.UpdateAvailable)
	assert.Nil(t, status.Latest)
}

func TestCheckPropagatesManifestFailure(t *testing.T) {
	u := New(staticManifest{err: errors.New("offline")}, zap.NewNop())
	_, err := u.Check(context.Background())
	assert.Error(t, err)
}

func TestApplyStagesVerifiedBuild(t *testing.T) {
	payload := []byte("new launcher binary")
	u, dir, calls := newTestUpdater(t, manifest(2, payload), payload)
	updater := filepath.Join(dir, executableName("updater"))
	require.NoError(t, os.WriteFile(updater, []byte("helper"), 0755))

	require.NoError(t, u.Apply(context.Background()))

	staged := filepath.Join(dir, executableName("cybercraft-launcher_new"))
	got, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	require.Len(t, *calls, 1)
	assert.Equal(t, updater, (*calls)[0].name)
	assert.Equal(t, []string{filepath.Join(dir, executableName("cybercraft-launcher")), staged}, (*calls)[0].args)
}

func TestApplyRejectsChecksumMismatch(t *testing.T) {
	u, dir, calls := newTestUpdater(t, manifest(2, []byte("expected")), []byte("tampered"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, executableName("updater")), nil, 0755))

	err := u.Apply(context.Background())
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Empty(t, *calls)
	assert.NoFileExists(t, filepath.Join(dir, executableName("cybercraft-launcher_new")))
}

func TestApplyNeedsUpdaterHelper(t *testing.T) {
	payload := []byte("bin")
	u, _, calls := newTestUpdater(t, manifest(2, payload), payload)

	assert.ErrorIs(t, u.Apply(context.Background()), ErrUpdaterNotFound)
	assert.Empty(t, *calls)
}

func TestApplyWhenUpToDate(t *testing.T) {
	u, _, _ := newTestUpdater(t, manifest(1, nil), nil)
	assert.ErrorIs(t, u.Apply(context.Background()), ErrUpToDate)
}
