package store

import (
	"context"
	"fmt"
	"time"
)

// Supported backend drivers.
const (
	DriverPebble   = "pebble"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver          string
	Path            string
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Driver {
	case DriverPebble, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("pebble store requires a path")
		}
		kv, err := OpenPebble(cfg.Path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		kv, err := OpenPostgres(ctx, PostgresConfig{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return kv, nil
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
