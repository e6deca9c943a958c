// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package record

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store. Reads vastly outnumber writes after the
// boot load, so it uses an RWMutex rather than sharding.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]Record),
	}
}

// Get returns the record with the given ID, or ErrNotFound.
func (s *MemStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Put stores a record, overwriting any existing record with the same ID.
func (s *MemStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

// ScanAll iterates every record under a read lock. fn must not call back
// into the store's write methods.
func (s *MemStore) ScanAll(ctx context.Context, fn func(Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}
