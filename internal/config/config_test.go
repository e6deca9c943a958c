// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "empty dataset path",
			mutate:  func(c *Config) { c.Dataset.Path = "" },
			wantErr: "dataset.path",
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.Store.Backend = "redis" },
			wantErr: "store.backend",
		},
		{
			name: "badger backend without path",
			mutate: func(c *Config) {
				c.Store.Backend = "badger"
				c.Store.Path = ""
			},
			wantErr: "store.path",
		},
		{
			name:    "non-positive cell size",
			mutate:  func(c *Config) { c.Index.CellSizeDeg = 0 },
			wantErr: "cell_size_deg",
		},
		{
			name:    "prefix without leading slash",
			mutate:  func(c *Config) { c.API.Prefix = "api/v1" },
			wantErr: "api.prefix",
		},
		{
			name: "max page size below default",
			mutate: func(c *Config) {
				c.API.DefaultPageSize = 500
				c.API.MaxPageSize = 100
			},
			wantErr: "max_page_size",
		},
		{
			name:    "no client origins",
			mutate:  func(c *Config) { c.API.ClientOrigins = nil },
			wantErr: "client_origins",
		},
		{
			name:    "bogus log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
		{
			name:    "bogus log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POSTIME_DATA", "/srv/postime/records.json")
	t.Setenv("POSTIME_DTS_PORT", "9090")
	t.Setenv("POSTIME_API_CLIENT", "https://viewer.postime.example, https://staging.postime.example")
	t.Setenv("POSTIME_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Dataset.Path != "/srv/postime/records.json" {
		t.Errorf("Dataset.Path = %q", cfg.Dataset.Path)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.API.ClientOrigins) != 2 || cfg.API.ClientOrigins[1] != "https://staging.postime.example" {
		t.Errorf("ClientOrigins = %v", cfg.API.ClientOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched settings keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
}

func TestEnvTransformFuncSkipsUnknown(t *testing.T) {
	t.Parallel()

	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unmapped env var should be skipped, got %q", got)
	}
	if got := envTransformFunc("POSTIME_DATA"); got != "dataset.path" {
		t.Errorf("POSTIME_DATA = %q, want dataset.path", got)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", got)
	}
}
