// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package index provides the grid-hash spatial index over record geometries.
// Geographic space is divided into fixed-size cells; an entry is registered
// in every cell its bounding box covers, so a query only inspects the cells
// its region touches instead of every record.
//
// Time Complexity:
//   - Insert: O(c) where c = cells covered by the geometry's bounding box
//   - Query: O(k) where k = entries in the region's cells (vs O(n) linear scan)
//   - Remove: O(c)
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/postime/chronomap/internal/geo"
	"github.com/postime/chronomap/internal/metrics"
	"github.com/postime/chronomap/internal/record"
)

// ErrDuplicateID indicates an Insert with an ID already present in the index.
var ErrDuplicateID = errors.New("duplicate record id")

// DefaultCellSize is the grid cell size in degrees (~111km at the equator).
const DefaultCellSize = 1.0

// CellKey represents a grid cell coordinate.
type CellKey struct {
	X, Y int
}

// entry is one indexed geometry with its cached cell coverage for removal.
type entry struct {
	id    string
	geom  geo.Geometry
	cells []CellKey
}

// Grid is the spatial index. Safe for concurrent use: queries take a read
// lock, structural mutation a write lock.
type Grid struct {
	mu       sync.RWMutex
	cellSize float64
	cells    map[CellKey]map[string]*entry
	entries  map[string]*entry
	epoch    uint64
}

// NewGrid creates a grid with the given cell size in degrees.
// Non-positive cell sizes fall back to DefaultCellSize.
func NewGrid(cellSizeDeg float64) *Grid {
	if cellSizeDeg <= 0 {
		cellSizeDeg = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSizeDeg,
		cells:    make(map[CellKey]map[string]*entry),
		entries:  make(map[string]*entry),
	}
}

// coverage returns the cell keys covered by a non-wrapping bounding box.
func (g *Grid) coverage(b geo.BoundingBox) []CellKey {
	minX := int(math.Floor(b.West / g.cellSize))
	maxX := int(math.Floor(b.East / g.cellSize))
	minY := int(math.Floor(b.South / g.cellSize))
	maxY := int(math.Floor(b.North / g.cellSize))

	keys := make([]CellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			keys = append(keys, CellKey{X: x, Y: y})
		}
	}
	return keys
}

// Insert registers a record's geometry. Returns ErrDuplicateID if the ID is
// already indexed.
func (g *Grid) Insert(rec record.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entries[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	e := &entry{
		id:    rec.ID,
		geom:  rec.Geometry,
		cells: g.coverage(rec.Geometry.Bounds()),
	}

	for _, key := range e.cells {
		cell, ok := g.cells[key]
		if !ok {
			cell = make(map[string]*entry, 4)
			g.cells[key] = cell
		}
		cell[e.id] = e
	}
	g.entries[e.id] = e
	g.epoch++

	metrics.IndexEntries.Set(float64(len(g.entries)))
	return nil
}

// Remove drops a record from the index. Returns record.ErrNotFound if the ID
// is not indexed.
func (g *Grid) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, exists := g.entries[id]
	if !exists {
		return fmt.Errorf("%w: %s", record.ErrNotFound, id)
	}

	for _, key := range e.cells {
		cell, ok := g.cells[key]
		if !ok {
			continue
		}
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, key)
		}
	}
	delete(g.entries, id)
	g.epoch++

	metrics.IndexEntries.Set(float64(len(g.entries)))
	return nil
}

// Query returns the IDs of all indexed geometries intersecting region.
// A wrapped region is split into its two non-wrapping halves and the results
// unioned; IDs appear at most once. The region must be validated by the
// caller.
func (g *Grid) Query(region geo.BoundingBox) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string

	for _, half := range region.Split() {
		for _, key := range g.coverage(half) {
			cell, ok := g.cells[key]
			if !ok {
				continue
			}
			for id, e := range cell {
				if _, dup := seen[id]; dup {
					continue
				}
				if e.geom.IntersectsBox(half) {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// Rebuild derives the index from a store snapshot, replacing all current
// entries. The new state is staged off-lock and swapped in atomically, so
// concurrent queries see either the old or the new index.
func (g *Grid) Rebuild(ctx context.Context, store record.Store) error {
	start := time.Now()

	staged := NewGrid(g.cellSize)
	err := store.ScanAll(ctx, func(rec record.Record) error {
		return staged.Insert(rec)
	})
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	g.mu.Lock()
	g.cells = staged.cells
	g.entries = staged.entries
	g.epoch++
	size := len(g.entries)
	g.mu.Unlock()

	metrics.IndexEntries.Set(float64(size))
	metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Len returns the number of indexed records.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// NumCells returns the number of non-empty cells.
func (g *Grid) NumCells() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Epoch returns the mutation epoch. It changes on every Insert, Remove, and
// Rebuild; result caches key on it to invalidate wholesale after mutation.
func (g *Grid) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}
