// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package config holds the Chronomap configuration, loaded from layered
// sources: built-in defaults, an optional YAML file, then POSTIME_*
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Dataset DatasetConfig `koanf:"dataset"`
	Store   StoreConfig   `koanf:"store"`
	Index   IndexConfig   `koanf:"index"`
	Engine  EngineConfig  `koanf:"engine"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatasetConfig configures the boot dataset load.
type DatasetConfig struct {
	// Path is the dataset JSON file loaded at startup (POSTIME_DATA).
	Path string `koanf:"path"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Backend is "memory" or "badger".
	Backend string `koanf:"backend"`
	// Path is the BadgerDB directory, required for the badger backend.
	Path string `koanf:"path"`
}

// IndexConfig configures the grid spatial index.
type IndexConfig struct {
	// CellSizeDeg is the grid cell edge length in degrees.
	CellSizeDeg float64 `koanf:"cell_size_deg"`
}

// EngineConfig configures the query engine.
type EngineConfig struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	// Prefix is the route prefix for the versioned API (POSTIME_API_PREFIX).
	Prefix string `koanf:"prefix"`
	// ClientOrigins lists the CORS-allowed viewer origins (POSTIME_API_CLIENT).
	ClientOrigins   []string `koanf:"client_origins"`
	DefaultPageSize int      `koanf:"default_page_size"`
	MaxPageSize     int      `koanf:"max_page_size"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults. The network and dataset
// defaults match what the Postime deployment has always used.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Dataset: DatasetConfig{
			Path: "data.json",
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "/data/chronomap",
		},
		Index: IndexConfig{
			CellSizeDeg: 1.0,
		},
		Engine: EngineConfig{
			CacheTTL:        5 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		API: APIConfig{
			Prefix:          "/api/v1",
			ClientOrigins:   []string{"http://localhost:5173"},
			DefaultPageSize: 100,
			MaxPageSize:     1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path must not be empty")
	}

	switch c.Store.Backend {
	case "memory":
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("store.backend %q must be \"memory\" or \"badger\"", c.Store.Backend)
	}

	if c.Index.CellSizeDeg <= 0 || c.Index.CellSizeDeg > 90 {
		return fmt.Errorf("index.cell_size_deg %f out of range (0, 90]", c.Index.CellSizeDeg)
	}

	if c.Engine.CacheTTL <= 0 {
		return fmt.Errorf("engine.cache_ttl must be positive, got %s", c.Engine.CacheTTL)
	}
	if c.Engine.CleanupInterval <= 0 {
		return fmt.Errorf("engine.cleanup_interval must be positive, got %s", c.Engine.CleanupInterval)
	}

	if !strings.HasPrefix(c.API.Prefix, "/") {
		return fmt.Errorf("api.prefix %q must start with /", c.API.Prefix)
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size %d below api.default_page_size %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if len(c.API.ClientOrigins) == 0 {
		return fmt.Errorf("api.client_origins must not be empty")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be \"json\" or \"console\"", c.Logging.Format)
	}

	return nil
}
