// Package config loads photosync's on-disk YAML configuration, with
// environment variables overriding file values, the way the teacher's
// config package layers LINEAR_API_KEY over config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is photosync's full configuration surface.
type Config struct {
	APIKey string       `yaml:"api_key"`
	Export ExportConfig `yaml:"export"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// ExportConfig configures the export engine: where it mirrors to, and
// whether it keeps running in response to remote changes (spec.md
// sections 4.6 and 9).
type ExportConfig struct {
	Root       string `yaml:"root"`
	Continuous bool   `yaml:"continuous"`
}

// CacheConfig holds cache settings parsed from the config file, adapted
// from the teacher's CacheConfig. No component in this module reads them.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// LogConfig configures log output and rotation.
type LogConfig struct {
	Level string `yaml:"level"`
	// File, if set, is rotated via lumberjack instead of writing to stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Continuous: false,
		},
		Cache: CacheConfig{
			TTL:        60 * time.Second,
			MaxEntries: 10000,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function, so tests can supply isolated environment values.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if apiKey := getenv("PHOTOSYNC_API_KEY"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	if root := getenv("PHOTOSYNC_EXPORT_ROOT"); root != "" {
		cfg.Export.Root = root
	}

	return cfg, nil
}

func getConfigPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "photosync", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "photosync", "config.yaml")
}
