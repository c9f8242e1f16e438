package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cybercraft-launcher/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newClient(t *testing.T, h http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL+"/", 5*time.Second, zaptest.NewLogger(t))
}

func TestLoginSendsCredentials(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/launcher/login/", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "alice", "password": "secret"}, body)
		w.Write([]byte(`{"token":"tok-1","user":{"avatar_url":null}}`))
	})

	res, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Nil(t, res.AvatarURL)
}

func TestLoginReadsEitherAvatarSpelling(t *testing.T) {
	for _, body := range []string{
		`{"user":{"avatar_url":"http://cdn/a.png"}}`,
		`{"user":{"avatarUrl":"http://cdn/a.png"}}`,
	} {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(body)) })
		res, err := c.Login(context.Background(), "alice", "secret")
		require.NoError(t, err)
		require.NotNil(t, res.AvatarURL, body)
		assert.Equal(t, "http://cdn/a.png", *res.AvatarURL)
	}
}

func TestLoginRejectedOnNon2xx(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid username or password"}`, http.StatusForbidden)
	})

	_, err := c.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, backend.ErrLoginRejected)
}

func TestLoginTransportFailure(t *testing.T) {
	c := backend.NewClient("http://127.0.0.1:1", time.Second, zaptest.NewLogger(t))
	_, err := c.Login(context.Background(), "alice", "secret")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, backend.ErrLoginRejected)
}

func TestServersDecodesDescriptors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/servers/", r.URL.Path)
		w.Write([]byte(`[{"name":"Survival","online_player":12,"server_image":"http://cdn/s.png",
			"images":[{"image":"http://cdn/1.png"}],"mods":["sodium","jei"],"version":"1.20.1"}]`))
	})

	servers, err := c.Servers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, backend.Server{
		Name:              "Survival",
		OnlinePlayerCount: 12,
		ImageURL:          "http://cdn/s.png",
		Images:            []backend.ServerImage{{Image: "http://cdn/1.png"}},
		Mods:              []string{"sodium", "jei"},
		Version:           "1.20.1",
	}, servers[0])
}

func TestServersStatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Servers(context.Background())
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
}

func TestProfileEscapesUsername(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a b&c", r.URL.Query().Get("username"))
		w.Write([]byte(`{"skinUrl":"http://cdn/skin.png"}`))
	})

	p, err := c.Profile(context.Background(), "a b&c")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/skin.png", p.SkinURL)
}

func TestLauncherManifest(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/launcher/manifest.json", r.URL.Path)
		w.Write([]byte(`{"version":"1.4.0","buildNumber":14,"asar":{"url":"http://cdn/l","sha256":"ab"}}`))
	})

	m, err := c.LauncherManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, m.BuildNumber)
	assert.Equal(t, "http://cdn/l", m.Artifact.URL)
	assert.Equal(t, "ab", m.Artifact.SHA256)
}
