package game_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cybercraft-launcher/config"
	"cybercraft-launcher/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	mu     sync.Mutex
	calls  []game.Options
	err    error
	events func(game.EventHandler)
}

func (c *fakeClient) Launch(opts game.Options, events game.EventHandler) error {
	c.mu.Lock()
	c.calls = append(c.calls, opts)
	c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.events != nil {
		c.events(events)
	}
	return nil
}

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func profile() config.Launch { return config.Default().Launch }

func TestLaunchPreparesDirectoriesAndForwardsEvents(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cybercraft")
	client := &fakeClient{events: func(h game.EventHandler) {
		h.Debug("resolving assets")
		h.Data([]byte("[main/INFO]: Setting user: alice"))
	}}
	sink := &lineSink{}
	d := game.NewDelegate(client, profile, zaptest.NewLogger(t))

	err := d.Launch(game.Request{Username: "alice", Version: "1.20.1", RAMGigabytes: 3, Root: root}, sink.add)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "cache", "json"))
	assert.Equal(t, []string{
		"Starting Minecraft...",
		"[DEBUG] resolving assets",
		"[main/INFO]: Setting user: alice",
	}, sink.lines)

	require.Len(t, client.calls, 1)
	opts := client.calls[0]
	assert.Equal(t, root, opts.Root)
	assert.Equal(t, game.Version{Number: "1.20.1", Type: "release"}, opts.Version)
	assert.Equal(t, game.Memory{Min: "1G", Max: "3G"}, opts.Memory)
	assert.Equal(t, "alice", opts.Credential.Name)
}

func TestLaunchIsIdempotentOnExistingDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cache", "json"), 0755))
	d := game.NewDelegate(&fakeClient{}, profile, zaptest.NewLogger(t))

	assert.NoError(t, d.Launch(game.Request{Username: "alice", Version: "1.20.1", Root: root}, func(string) {}))
	assert.NoError(t, d.Launch(game.Request{Username: "alice", Version: "1.20.1", Root: root}, func(string) {}))
}

func TestLaunchDefaultsMemoryWhenUnset(t *testing.T) {
	client := &fakeClient{}
	d := game.NewDelegate(client, profile, zaptest.NewLogger(t))

	require.NoError(t, d.Launch(game.Request{Username: "bob", Version: "1.19.4", Root: t.TempDir()}, func(string) {}))
	assert.Equal(t, "2G", client.calls[0].Memory.Max)
}

func TestLaunchFailsWhenRootCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	client := &fakeClient{}
	d := game.NewDelegate(client, profile, zaptest.NewLogger(t))

	err := d.Launch(game.Request{Username: "alice", Version: "1.20.1", Root: filepath.Join(blocker, "game")}, func(string) {})
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
	assert.Empty(t, client.calls, "bootstrapper is not called when setup fails")
}

func TestLaunchWrapsBootstrapperError(t *testing.T) {
	boom := errors.New("java not found")
	d := game.NewDelegate(&fakeClient{err: boom}, profile, zaptest.NewLogger(t))

	err := d.Launch(game.Request{Username: "alice", Version: "1.20.1", Root: t.TempDir()}, func(string) {})
	assert.ErrorIs(t, err, boom)
}

func TestLaunchValidatesRequest(t *testing.T) {
	d := game.NewDelegate(&fakeClient{}, profile, zaptest.NewLogger(t))

	assert.Error(t, d.Launch(game.Request{Version: "1.20.1", Root: t.TempDir()}, func(string) {}))
	assert.Error(t, d.Launch(game.Request{Username: "alice", Root: t.TempDir()}, func(string) {}))
	assert.Error(t, d.Launch(game.Request{Username: "alice", Version: "1.20.1"}, func(string) {}))
}

func TestOfflineCredential(t *testing.T) {
	a := game.OfflineCredential("alice")
	again := game.OfflineCredential("alice")
	b := game.OfflineCredential("bob")

	assert.Equal(t, a, again)
	assert.NotEqual(t, a.UUID, b.UUID)
	assert.Equal(t, byte('3'), a.UUID[14], "name-based v3 uuid")
	assert.Equal(t, "legacy", a.UserType)
}
