package config

import (
	"context"
	"sync"
)

// Settings is a mutable, concurrency-safe view over the export root and
// continuous-export flag, seeded from Config and updatable at runtime
// (e.g. by a "set export root" CLI command) without requiring a config
// file rewrite. It satisfies scheduler.SettingsProvider.
type Settings struct {
	mu         sync.RWMutex
	root       string
	continuous bool
}

// NewSettings seeds a Settings from cfg's export section.
func NewSettings(cfg *Config) *Settings {
	return &Settings{root: cfg.Export.Root, continuous: cfg.Export.Continuous}
}

func (s *Settings) ExportRoot(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, nil
}

func (s *Settings) SetExportRoot(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
}

func (s *Settings) ContinuousExport(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.continuous, nil
}

func (s *Settings) SetContinuousExport(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continuous = enabled
}
