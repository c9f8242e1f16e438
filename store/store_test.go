package store_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"cybercraft-launcher/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newStore(t)
	want := store.Settings{RAMGigabytes: 3, GamePath: "/games/cybercraft"}

	require.NoError(t, s.SaveSettings(want))
	got, found, err := s.Settings()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	next := store.Settings{RAMGigabytes: 6, GamePath: "/other"}
	require.NoError(t, s.SaveSettings(next))
	got, _, err = s.Settings()
	require.NoError(t, err)
	assert.Equal(t, next, got, "write is a full replace")
}

func TestReadWithoutWriteIsAbsent(t *testing.T) {
	s := newStore(t)

	for _, key := range []store.Key{store.KeySession, store.KeySettings} {
		var doc map[string]any
		found, err := s.Read(key, &doc)
		assert.NoError(t, err, key)
		assert.False(t, found, key)
	}

	id, err := s.Session()
	assert.NoError(t, err)
	assert.Nil(t, id)
}

func TestDeleteThenReadIsAbsent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.DeleteSession(), "delete of a missing document is a no-op")
	id, err := s.Session()
	require.NoError(t, err)
	assert.Nil(t, id)

	require.NoError(t, s.SaveSession(store.SessionIdentity{Username: "alice", Password: "secret"}))
	require.NoError(t, s.DeleteSession())
	id, err = s.Session()
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestSessionRoundTripKeepsNullAvatar(t *testing.T) {
	s := newStore(t)
	want := store.SessionIdentity{Username: "alice", Password: "secret"}

	require.NoError(t, s.SaveSession(want))
	got, err := s.Session()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "session.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"avatarUrl": null`)
	assert.Contains(t, string(raw), `"version": 1`)
}

func TestSessionFileIsPrivate(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveSession(store.SessionIdentity{Username: "alice", Password: "secret"}))

	info, err := os.Stat(filepath.Join(s.Dir(), "session.json"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestReadsLegacyDocumentWithoutEnvelope(t *testing.T) {
	s := newStore(t)
	legacy := `{"username":"bob","password":"pw","avatarUrl":"http://cdn/bob.png"}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "session.json"), []byte(legacy), 0600))

	got, err := s.Session()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bob", got.Username)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, "http://cdn/bob.png", *got.AvatarURL)
}

func TestCorruptDocumentIsAnError(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "settings.json"), []byte("{not json"), 0644))

	_, found, err := s.Settings()
	assert.Error(t, err)
	assert.False(t, found)
}

func TestUnknownKeyIsRejected(t *testing.T) {
	s := newStore(t)
	var v any
	_, err := s.Read("profile", &v)
	assert.ErrorIs(t, err, store.ErrUnknownKey)
	assert.ErrorIs(t, s.Write("profile", 1), store.ErrUnknownKey)
	assert.ErrorIs(t, s.Delete("profile"), store.ErrUnknownKey)
}

func TestSaveValidatesDocuments(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.SaveSettings(store.Settings{RAMGigabytes: 0, GamePath: "/x"}))
	assert.Error(t, s.SaveSettings(store.Settings{RAMGigabytes: 2}))
	assert.Error(t, s.SaveSession(store.SessionIdentity{Username: "alice"}))
}

func TestDefaultSettings(t *testing.T) {
	tests := []struct {
		totalGB int
		wantRAM int
	}{
		{totalGB: 0, wantRAM: 2},
		{totalGB: 2, wantRAM: 2},
		{totalGB: 4, wantRAM: 3},
		{totalGB: 5, wantRAM: 4},
		{totalGB: 64, wantRAM: 4},
	}
	for _, tt := range tests {
		got := store.DefaultSettings(tt.totalGB, "/data")
		assert.Equal(t, tt.wantRAM, got.RAMGigabytes, "total %d GB", tt.totalGB)
		assert.GreaterOrEqual(t, got.RAMGigabytes, 2)
		assert.LessOrEqual(t, got.RAMGigabytes, 4)
		assert.Equal(t, filepath.Join("/data", "CyberCraft"), got.GamePath)
	}
}
