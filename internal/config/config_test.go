package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BBLABEL_INPUT_DIR", "/data/images")
	t.Setenv("BBLABEL_OUTPUT_DIR", "/data/labels")
	t.Setenv("BBLABEL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/images", cfg.InputDir)
	assert.Equal(t, "/data/labels", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogDev)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "images")
	require.NoError(t, os.Mkdir(input, 0755))

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "creates missing output directory",
			cfg:  Config{InputDir: input, OutputDir: filepath.Join(root, "labels")},
		},
		{
			name: "accepts existing output directory",
			cfg:  Config{InputDir: input, OutputDir: root},
		},
		{
			name:    "missing input directory",
			cfg:     Config{InputDir: filepath.Join(root, "nope"), OutputDir: root},
			wantErr: true,
		},
		{
			name:    "output parent does not exist",
			cfg:     Config{InputDir: input, OutputDir: filepath.Join(root, "a", "b")},
			wantErr: true,
		},
		{
			name:    "empty paths",
			cfg:     Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			info, err := os.Stat(tt.cfg.OutputDir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}
