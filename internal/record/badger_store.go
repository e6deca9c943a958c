// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package record

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const recordKeyPrefix = "record:"

// BadgerStore is a Store backed by BadgerDB. It gives the dataset durability
// across restarts while keeping reads local and fast.
type BadgerStore struct {
	db    *badger.DB
	count atomic.Int64
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	s := &BadgerStore{db: db}
	if err := s.initCount(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewBadgerStore wraps an already-open BadgerDB handle. The caller retains
// ownership of the handle; Close still closes it.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	s := &BadgerStore{db: db}
	if err := s.initCount(); err != nil {
		return nil, err
	}
	return s, nil
}

// initCount seeds the record counter from existing keys.
func (s *BadgerStore) initCount() error {
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	s.count.Store(n)
	return nil
}

// Get returns the record with the given ID, or ErrNotFound.
func (s *BadgerStore) Get(_ context.Context, id string) (Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Put stores a record, overwriting any existing record with the same ID.
func (s *BadgerStore) Put(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	key := []byte(recordKeyPrefix + rec.ID)
	fresh := false

	err = s.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(key)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			fresh = true
		} else if getErr != nil {
			return fmt.Errorf("check record: %w", getErr)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}

	if fresh {
		s.count.Add(1)
	}
	return nil
}

// ScanAll iterates every record once in key order.
func (s *BadgerStore) ScanAll(ctx context.Context, fn func(Record) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of stored records.
func (s *BadgerStore) Len() int {
	return int(s.count.Load())
}

// Close closes the underlying BadgerDB handle.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
