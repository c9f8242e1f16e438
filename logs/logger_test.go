package logs_test

import (
	"os"
	"path/filepath"
	"testing"

	"cybercraft-launcher/logs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.log")

	logger, err := logs.New("info", path)
	require.NoError(t, err)
	logger.Named("gateway").Info("listening")
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"logger":"gateway"`)
	assert.Contains(t, string(raw), "listening")
	assert.NotContains(t, string(raw), "hidden at info level")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := logs.New("chatty", "")
	assert.Error(t, err)
}
