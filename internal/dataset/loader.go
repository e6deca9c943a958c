// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package dataset loads the record dataset file into a store at boot.
// The file is produced externally; this is a one-shot load, not a pipeline.
package dataset

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/postime/chronomap/internal/logging"
	"github.com/postime/chronomap/internal/metrics"
	"github.com/postime/chronomap/internal/record"
	"github.com/postime/chronomap/internal/temporal"
)

// document is the dataset file shape: a single JSON object holding records
// with GeoJSON geometries.
type document struct {
	Records []record.Record `json:"records"`
}

// Load reads the dataset file at path and puts every record into the store.
// Returns the number of records loaded.
//
// Load fails on the first invalid record: empty or duplicate ID, malformed
// geometry, or an interval with both bounds set and To <= From. A partially
// loaded store must not be served; callers should treat an error as fatal.
func Load(ctx context.Context, path string, store record.Store) (int, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var doc document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return 0, fmt.Errorf("parse dataset %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(doc.Records))
	for i, rec := range doc.Records {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if rec.ID == "" {
			return 0, fmt.Errorf("dataset record %d: empty id", i)
		}
		if _, dup := seen[rec.ID]; dup {
			return 0, fmt.Errorf("dataset record %d: duplicate id %s", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if err := rec.Geometry.Validate(); err != nil {
			return 0, fmt.Errorf("dataset record %s: %w", rec.ID, err)
		}
		if err := temporal.ValidateRange(rec.Valid.From, rec.Valid.To); err != nil {
			return 0, fmt.Errorf("dataset record %s: %w", rec.ID, err)
		}

		if err := store.Put(ctx, rec); err != nil {
			return 0, fmt.Errorf("store dataset record %s: %w", rec.ID, err)
		}
	}

	loaded := len(doc.Records)
	metrics.DatasetRecordsLoaded.Add(float64(loaded))
	metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	metrics.StoreRecords.Set(float64(store.Len()))

	logging.Info().
		Str("path", path).
		Int("records", loaded).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")

	return loaded, nil
}
