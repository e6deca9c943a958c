// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package services

import (
	"context"
	"time"

	"github.com/postime/chronomap/internal/logging"
)

// Cleanable is a cache that can drop its expired entries. Satisfied by
// *cache.Cache.
type Cleanable interface {
	Cleanup() int
}

// JanitorService periodically sweeps expired entries out of the result
// caches. The caches themselves run no background goroutines; all expiry
// beyond lazy per-Get checks happens here, under supervision.
type JanitorService struct {
	interval time.Duration
	caches   []Cleanable
}

// NewJanitorService creates a janitor sweeping the given caches every
// interval. interval <= 0 falls back to 1m.
func NewJanitorService(interval time.Duration, caches []Cleanable) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{
		interval: interval,
		caches:   caches,
	}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.Cleanup()
			}
			if removed > 0 {
				logging.Debug().
					Int("removed", removed).
					Msg("cache janitor swept expired entries")
			}
		}
	}
}

// String identifies the service in suture log events.
func (j *JanitorService) String() string {
	return "cache-janitor"
}
