// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package record defines the canonical record model and the store contract
// the query engine resolves candidates against.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/postime/chronomap/internal/geo"
)

// ErrNotFound indicates the requested record ID does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Interval is a half-open validity window [From, To). A nil bound is
// unbounded on that side.
type Interval struct {
	From *time.Time `json:"valid_from,omitempty"`
	To   *time.Time `json:"valid_to,omitempty"`
}

// Overlaps reports whether two half-open intervals share any instant.
// Unbounded sides are treated as infinitely far in that direction.
func (iv Interval) Overlaps(other Interval) bool {
	// a.From < b.To && b.From < a.To, with nil as ±infinity.
	if iv.From != nil && other.To != nil && !iv.From.Before(*other.To) {
		return false
	}
	if other.From != nil && iv.To != nil && !other.From.Before(*iv.To) {
		return false
	}
	return true
}

// Bounded reports whether both ends of the interval are set.
func (iv Interval) Bounded() bool {
	return iv.From != nil && iv.To != nil
}

// Record is one entry of the dataset: a stable ID, a geometry, a validity
// interval, and opaque display attributes.
type Record struct {
	ID       string
	Geometry geo.Geometry
	Valid    Interval
	Attrs    map[string]interface{}
}

// recordWire is the JSON shape of a Record. Geometry travels as GeoJSON so
// the same encoding serves the Badger store and the dataset file format.
type recordWire struct {
	ID       string                 `json:"id"`
	Geometry geo.GeoJSONGeometry    `json:"geometry"`
	From     *time.Time             `json:"valid_from,omitempty"`
	To       *time.Time             `json:"valid_to,omitempty"`
	Attrs    map[string]interface{} `json:"attributes,omitempty"`
}

// MarshalJSON encodes the record with its geometry as GeoJSON.
func (r Record) MarshalJSON() ([]byte, error) {
	gj, err := geo.ToGeoJSON(r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return json.Marshal(recordWire{
		ID:       r.ID,
		Geometry: gj,
		From:     r.Valid.From,
		To:       r.Valid.To,
		Attrs:    r.Attrs,
	})
}

// UnmarshalJSON decodes a record, parsing its GeoJSON geometry.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	g, err := geo.FromGeoJSON(w.Geometry)
	if err != nil {
		return fmt.Errorf("record %s: %w", w.ID, err)
	}
	r.ID = w.ID
	r.Geometry = g
	r.Valid = Interval{From: w.From, To: w.To}
	r.Attrs = w.Attrs
	return nil
}

// Store is the record store contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Put stores a record, overwriting any existing record with the same ID.
	Put(ctx context.Context, rec Record) error

	// ScanAll iterates every record once in unspecified order. Iteration
	// stops at the first error returned by fn, which is propagated.
	ScanAll(ctx context.Context, fn func(Record) error) error

	// Len returns the number of stored records.
	Len() int

	// Close releases store resources.
	Close() error
}
