package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	logger, err := New(Config{Level: "info", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Image saved")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Image saved"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	assert.NotNil(t, NewOrNop(Config{Level: "loud"}))
}
