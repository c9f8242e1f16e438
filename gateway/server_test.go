package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cybercraft-launcher/gateway"
	"cybercraft-launcher/store"
)

const testToken = "6f1c2b9e-token"

type blockingHost struct {
	*fakeHost
	entered chan struct{}
	release chan struct{}
}

func (h *blockingHost) SelectDirectory() (string, bool, error) {
	close(h.entered)
	<-h.release
	return "/games/picked", false, nil
}

func startServer(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()
	srv := gateway.NewServer(f.gateway, testToken, f.registry, zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server) *gateway.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := gateway.Dial(ctx, wsURL(ts), testToken, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServerRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	ts := startServer(t, f)

	_, err := gateway.Dial(testContext(t), wsURL(ts), "wrong", zap.NewNop())
	require.Error(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/ops/getMaxMemoryGB", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClientSessionScenario(t *testing.T) {
	f := newFixture(t)
	c := dial(t, startServer(t, f))
	ctx := testContext(t)

	id, err := c.SessionIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)

	require.NoError(t, c.SaveSessionIdentity(ctx, store.SessionIdentity{Username: "alice", Password: "pw"}))

	id, err = c.SessionIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "pw", id.Password)
	assert.Nil(t, id.AvatarURL)

	require.NoError(t, c.Logout(ctx))
	id, err = c.SessionIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestClientSettingsAndMemory(t *testing.T) {
	f := newFixture(t)
	c := dial(t, startServer(t, f))
	ctx := testContext(t)

	gb, err := c.MaxMemoryGB(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, gb)

	want := store.Settings{RAMGigabytes: 5, GamePath: "/games/cc"}
	require.NoError(t, c.SaveSettings(ctx, want))
	got, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = c.SaveSettings(ctx, store.Settings{GamePath: "/games/cc"})
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, gateway.OpSaveSettings, remote.Op)
}

func TestClientUnknownOpIsRejected(t *testing.T) {
	f := newFixture(t)
	c := dial(t, startServer(t, f))

	err := c.Call(testContext(t), "formatDisk", nil, nil)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Message, "unknown operation")
}

func TestSlowDialogDoesNotBlockOtherCalls(t *testing.T) {
	f := newFixture(t)
	host := &blockingHost{fakeHost: f.host, entered: make(chan struct{}), release: make(chan struct{})}
	f.gateway = gateway.New(gateway.Deps{Store: f.store, Host: host, Launcher: f.launcher, Logger: zap.NewNop()})
	c := dial(t, startServer(t, f))
	ctx := testContext(t)

	picked := make(chan gateway.DirectoryResult, 1)
	go func() {
		res, err := c.SelectDirectory(ctx)
		assert.NoError(t, err)
		picked <- res
	}()
	select {
	case <-host.entered:
	case <-ctx.Done():
		t.Fatal("selectDirectory never reached the host")
	}

	gb, err := c.MaxMemoryGB(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, gb)

	close(host.release)
	select {
	case res := <-picked:
		assert.Equal(t, "/games/picked", res.Path)
	case <-ctx.Done():
		t.Fatal("selectDirectory reply lost")
	}
}

type lineCollector struct {
	mutex sync.Mutex
	lines []string
}

func (l *lineCollector) add(line string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lines = append(l.lines, line)
}

func (l *lineCollector) snapshot() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.lines...)
}

func TestClientGameLogStream(t *testing.T) {
	f := newFixture(t)
	f.launcher.lines = []string{"Starting Minecraft...", "[DEBUG] exec portablemc"}
	c := dial(t, startServer(t, f))
	ctx := testContext(t)

	first := &lineCollector{}
	second := &lineCollector{}
	require.NoError(t, c.OnGameLog(first.add))
	require.NoError(t, c.OnGameLog(second.add))

	res, err := c.LaunchGame(ctx, "alice", "1.20.1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Eventually(t, func() bool { return len(second.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, f.launcher.lines, second.snapshot())
	assert.Empty(t, first.snapshot())
}

func TestClientFailsAfterClose(t *testing.T) {
	f := newFixture(t)
	c := dial(t, startServer(t, f))

	require.NoError(t, c.Close())
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the closed connection")
	}
	_, err := c.MaxMemoryGB(testContext(t))
	assert.ErrorIs(t, err, gateway.ErrClosed)
}

func TestHTTPOps(t *testing.T) {
	f := newFixture(t)
	ts := startServer(t, f)

	post := func(op, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/ops/"+op, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set(gateway.TokenHeader, testToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, post("getMaxMemoryGB", "").StatusCode)
	assert.Equal(t, http.StatusAccepted, post("minimizeWindow", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, post("formatDisk", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, post("gameLogStream", "").StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, post("saveSettings", `{"ramGigabytes":0}`).StatusCode)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
