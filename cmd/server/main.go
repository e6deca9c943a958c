// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package main is the entry point for the Chronomap server.
//
// Chronomap answers "what existed here, then?" for the Postime time machine
// viewer: it loads a dataset of geographic records with validity intervals,
// indexes them spatially, and serves paginated temporal-spatial queries,
// a timeline summary, and GeoJSON exports over HTTP.
//
// # Startup order
//
//  1. Environment: load .env if present (godotenv)
//  2. Configuration: koanf v2 layering defaults, YAML file, POSTIME_* env vars
//  3. Logging: zerolog per the configured level and format
//  4. Store: in-memory or BadgerDB record store
//  5. Dataset: one-shot load of the configured data file
//  6. Index: grid index rebuild from the store
//  7. Engine + HTTP API: chi router behind a suture supervision tree
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests within the configured timeout, then the store closes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/postime/chronomap/internal/api"
	"github.com/postime/chronomap/internal/config"
	"github.com/postime/chronomap/internal/dataset"
	"github.com/postime/chronomap/internal/engine"
	"github.com/postime/chronomap/internal/index"
	"github.com/postime/chronomap/internal/logging"
	"github.com/postime/chronomap/internal/record"
	"github.com/postime/chronomap/internal/supervisor"
	"github.com/postime/chronomap/internal/supervisor/services"
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("dataset", cfg.Dataset.Path).
		Str("store_backend", cfg.Store.Backend).
		Msg("Starting Chronomap")

	store, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing record store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded, err := dataset.Load(ctx, cfg.Dataset.Path, store)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Dataset.Path).Msg("Failed to load dataset")
	}

	grid := index.NewGrid(cfg.Index.CellSizeDeg)
	if err := grid.Rebuild(ctx, store); err != nil {
		logging.Fatal().Err(err).Msg("Failed to build spatial index")
	}
	logging.Info().
		Int("records", loaded).
		Int("cells", grid.NumCells()).
		Float64("cell_size_deg", cfg.Index.CellSizeDeg).
		Msg("Spatial index built")

	eng := engine.New(store, grid, cfg.Engine.CacheTTL)
	srv := api.NewServer(cfg, eng)
	srv.SetReady()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPService(httpServer, supervisor.DefaultTreeConfig().ShutdownTimeout))

	cleanables := make([]services.Cleanable, 0, 2)
	for _, c := range eng.Caches() {
		cleanables = append(cleanables, c)
	}
	tree.AddMaintenanceService(services.NewJanitorService(cfg.Engine.CleanupInterval, cleanables))

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Chronomap ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor stopped with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	logging.Info().Msg("Chronomap stopped")
}

// openStore creates the record store for the configured backend. Validate
// has already constrained Backend to "memory" or "badger".
func openStore(cfg *config.Config) (record.Store, error) {
	switch cfg.Store.Backend {
	case "badger":
		return record.OpenBadgerStore(cfg.Store.Path)
	default:
		return record.NewMemStore(), nil
	}
}
