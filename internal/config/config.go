// Package config loads user settings from the XDG config directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/metcalfc/cardr/internal/segment"
)

// Config holds cardr settings.
type Config struct {
	// MaxLength is the card capacity in characters.
	MaxLength int `yaml:"max_length"`
	// Store selects the state backend: json or sqlite.
	Store string `yaml:"store"`
	// SkipFrontMatter drops everything before the first chapter.
	SkipFrontMatter bool `yaml:"skip_front_matter"`
	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxLength: segment.DefaultMaxLength,
		Store:     "json",
		LogLevel:  "info",
	}
}

// Path returns XDG_CONFIG_HOME/cardr/config.yaml or
// ~/.config/cardr/config.yaml.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cardr", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cardr", "config.yaml")
}

// Load reads the config file at path over the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MaxLength < 1 {
		return fmt.Errorf("max_length must be positive, got %d", c.MaxLength)
	}
	switch c.Store {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store must be json or sqlite, got %q", c.Store)
	}
	return nil
}
