// Package store provides durable incident.Store implementations. Each one
// closes the dispatch check-then-act race with a conditional write native to
// its backend: a partial unique index for SQLite, HSETNX for Redis.
package store

import (
	"fmt"

	"github.com/sunnyysetia/patrolsim/core/incident"
)

// Config selects and parameterises the incident store backend.
type Config struct {
	// Type is "memory", "sqlite" or "redis".
	Type string `json:"type"`
	// Path is the SQLite database file.
	Path string `json:"path"`
	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `json:"redis_addr"`
	// RedisPassword authenticates against Redis when non-empty.
	RedisPassword string `json:"redis_password"`
	// RedisDB selects the Redis logical database.
	RedisDB int `json:"redis_db"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "memory"
	}
	if c.Path == "" {
		c.Path = "incidents.db"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Type {
	case "memory", "sqlite", "redis":
		return nil
	default:
		return fmt.Errorf("unknown store type %q", c.Type)
	}
}

// Open builds the configured incident store.
func (c Config) Open() (incident.Store, error) {
	switch c.Type {
	case "memory":
		return incident.NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(c.Path)
	case "redis":
		return NewRedisStore(c.RedisAddr, c.RedisPassword, c.RedisDB), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", c.Type)
	}
}
