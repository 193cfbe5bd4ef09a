// Package store provides workspace.Store backends.
package store

import (
	"fmt"

	"github.com/kilianp07/rota/core/workspace"
)

// Config selects a backend.
type Config struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		if c.Backend == "sqlite" {
			c.Path = "rota.db"
		} else {
			c.Path = "rota.jsonl"
		}
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
		return nil
	}
	return fmt.Errorf("store: unknown backend %q", c.Backend)
}

// Open returns the configured store and a close function. Backend "none"
// yields a nil store. Closing a jsonl store compacts its log.
func Open(cfg Config) (workspace.Store, func() error, error) {
	cfg.SetDefaults()
	switch cfg.Backend {
	case "none":
		return nil, func() error { return nil }, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s.Close, nil
	case "jsonl":
		s := NewJSONLStore(cfg.Path)
		return s, s.Compact, nil
	}
	return nil, nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
}
