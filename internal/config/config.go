// Package config holds the settings of the annotation tools and validates them before a session
// starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	InputDir  string `envconfig:"INPUT_DIR"`  // One sub-directory per category.
	OutputDir string `envconfig:"OUTPUT_DIR"` // Label files, one per image.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev    bool   `envconfig:"LOG_DEV" default:"false"`
}

// EnvPrefix prefixes all environment variables, e.g. BBLABEL_INPUT_DIR.
const EnvPrefix = "BBLABEL"

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the directories and creates the output directory if it does not exist yet. Its
// parent directory must exist.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("missing input directory")
	}
	if c.OutputDir == "" {
		return errors.New("missing output directory")
	}

	c.InputDir = filepath.Clean(c.InputDir)
	c.OutputDir = filepath.Clean(c.OutputDir)

	if info, err := os.Stat(c.InputDir); err != nil || !info.IsDir() {
		return fmt.Errorf("the input directory %q doesn't exist", c.InputDir)
	}

	if info, err := os.Stat(c.OutputDir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("the output path %q is not a directory", c.OutputDir)
		}
		return nil
	}

	parent := filepath.Dir(c.OutputDir)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return fmt.Errorf("the parent of the output directory %q doesn't exist", c.OutputDir)
	}
	if err := os.Mkdir(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("cannot create the output directory %q: %w", c.OutputDir, err)
	}

	return nil
}
