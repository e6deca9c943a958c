// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package engine executes temporal-spatial queries: spatial candidates from
// the grid index, resolved against the record store, filtered by validity
// interval, sorted by ID, and paginated with opaque cursors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/postime/chronomap/internal/cache"
	"github.com/postime/chronomap/internal/geo"
	"github.com/postime/chronomap/internal/index"
	"github.com/postime/chronomap/internal/logging"
	"github.com/postime/chronomap/internal/metrics"
	"github.com/postime/chronomap/internal/record"
	"github.com/postime/chronomap/internal/temporal"
)

// ErrInconsistent indicates an index candidate missing from the store.
// This is a server fault: the index and store have diverged, and silently
// skipping the candidate would hide data corruption.
var ErrInconsistent = errors.New("index inconsistent with store")

const (
	// DefaultPageSize applies when the caller does not specify a limit.
	DefaultPageSize = 100

	// MaxPageSize caps the per-page record count.
	MaxPageSize = 1000

	// DefaultCacheTTL is the result cache lifetime.
	DefaultCacheTTL = 5 * time.Minute
)

// QueryParams are the inputs of one paginated query.
type QueryParams struct {
	Region    geo.BoundingBox
	TimeRange record.Interval
	PageSize  int
	Cursor    string
}

// ResultSet is one page of query results.
type ResultSet struct {
	Records []record.Record `json:"records"`
	// NextCursor resumes after the last record of this page. Empty when
	// the result set is exhausted.
	NextCursor string `json:"next_cursor,omitempty"`
	// Total is the number of matches across all pages.
	Total int `json:"total"`
}

// YearCount is the number of records valid at some instant of a year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Timeline describes the dataset's temporal extent for the viewer's slider.
// From and To are the earliest and latest bounded interval endpoints; nil
// when no record carries that bound.
type Timeline struct {
	From       *time.Time  `json:"from,omitempty"`
	To         *time.Time  `json:"to,omitempty"`
	YearCounts []YearCount `json:"year_counts"`
}

// Engine wires the spatial index, record store, and result cache together.
type Engine struct {
	store         record.Store
	idx           *index.Grid
	queryCache    *cache.Cache
	timelineCache *cache.Cache
}

// New creates an engine over the given store and index. cacheTTL <= 0 falls
// back to DefaultCacheTTL.
func New(store record.Store, idx *index.Grid, cacheTTL time.Duration) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Engine{
		store:         store,
		idx:           idx,
		queryCache:    cache.New("query", cacheTTL),
		timelineCache: cache.New("timeline", cacheTTL),
	}
}

// Caches returns the engine's result caches for janitor cleanup.
func (e *Engine) Caches() []*cache.Cache {
	return []*cache.Cache{e.queryCache, e.timelineCache}
}

// queryCacheKey identifies a query result. The index epoch is part of the
// key, so every index mutation implicitly invalidates all cached pages.
type queryCacheKey struct {
	Region   geo.BoundingBox `json:"region"`
	From     *time.Time      `json:"from"`
	To       *time.Time      `json:"to"`
	PageSize int             `json:"page_size"`
	LastID   string          `json:"last_id"`
	Epoch    uint64          `json:"epoch"`
}

// Query runs one paginated temporal-spatial query.
//
// Validation errors (ErrInvalidRegion, ErrInvalidRange, ErrInvalidCursor)
// are caller errors. ErrInconsistent is a server fault and is logged here
// before being surfaced.
func (e *Engine) Query(ctx context.Context, params QueryParams) (ResultSet, error) {
	start := time.Now()

	rs, err := e.query(ctx, params)
	metrics.RecordQuery("query", time.Since(start), errorType(err))
	return rs, err
}

func (e *Engine) query(ctx context.Context, params QueryParams) (ResultSet, error) {
	if err := params.Region.Validate(); err != nil {
		return ResultSet{}, err
	}
	if err := temporal.ValidateRange(params.TimeRange.From, params.TimeRange.To); err != nil {
		return ResultSet{}, err
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	lastID, err := decodeCursor(params.Cursor)
	if err != nil {
		return ResultSet{}, err
	}

	key := cache.GenerateKey("query", queryCacheKey{
		Region:   params.Region,
		From:     params.TimeRange.From,
		To:       params.TimeRange.To,
		PageSize: pageSize,
		LastID:   lastID,
		Epoch:    e.idx.Epoch(),
	})
	if cached, ok := e.queryCache.Get(key); ok {
		if rs, ok := cached.(ResultSet); ok {
			return rs, nil
		}
	}

	matched, err := e.collect(ctx, params.Region, params.TimeRange)
	if err != nil {
		return ResultSet{}, err
	}

	// Slice the page after the cursor position.
	startIdx := 0
	if lastID != "" {
		startIdx = sort.Search(len(matched), func(i int) bool {
			return matched[i].ID > lastID
		})
	}

	end := startIdx + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	rs := ResultSet{
		Records: matched[startIdx:end],
		Total:   len(matched),
	}
	if end < len(matched) {
		rs.NextCursor = encodeCursor(matched[end-1].ID)
	}

	e.queryCache.Set(key, rs)
	return rs, nil
}

// Get returns one record by ID. record.ErrNotFound passes through unwrapped
// so the API layer can map it to a 404.
func (e *Engine) Get(ctx context.Context, id string) (record.Record, error) {
	start := time.Now()

	rec, err := e.store.Get(ctx, id)
	metrics.RecordQuery("get", time.Since(start), errorType(err))
	return rec, err
}

// Export runs a non-paginated query for the GeoJSON export endpoint.
func (e *Engine) Export(ctx context.Context, region geo.BoundingBox, timeRange record.Interval) ([]record.Record, error) {
	start := time.Now()

	recs, err := e.export(ctx, region, timeRange)
	metrics.RecordQuery("export", time.Since(start), errorType(err))
	return recs, err
}

func (e *Engine) export(ctx context.Context, region geo.BoundingBox, timeRange record.Interval) ([]record.Record, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if err := temporal.ValidateRange(timeRange.From, timeRange.To); err != nil {
		return nil, err
	}
	return e.collect(ctx, region, timeRange)
}

// collect produces the full sorted match set for a validated query.
func (e *Engine) collect(ctx context.Context, region geo.BoundingBox, timeRange record.Interval) ([]record.Record, error) {
	ids := e.idx.Query(region)
	metrics.QueryCandidates.Observe(float64(len(ids)))

	candidates := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := e.store.Get(ctx, id)
		if errors.Is(err, record.ErrNotFound) {
			err = fmt.Errorf("%w: record %s indexed but not stored", ErrInconsistent, id)
			logging.CtxErr(ctx, err).Str("record_id", id).Msg("consistency fault during query")
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("resolve candidate %s: %w", id, err)
		}
		candidates = append(candidates, rec)
	}

	matched := temporal.Filter(candidates, timeRange)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// Timeline returns the dataset's temporal extent and per-year record counts.
// Unbounded interval sides are clamped to the dataset extent for counting.
func (e *Engine) Timeline(ctx context.Context) (Timeline, error) {
	start := time.Now()

	tl, err := e.timeline(ctx)
	metrics.RecordQuery("timeline", time.Since(start), errorType(err))
	return tl, err
}

func (e *Engine) timeline(ctx context.Context) (Timeline, error) {
	key := cache.GenerateKey("timeline", struct {
		Epoch uint64 `json:"epoch"`
	}{Epoch: e.idx.Epoch()})
	if cached, ok := e.timelineCache.Get(key); ok {
		if tl, ok := cached.(Timeline); ok {
			return tl, nil
		}
	}

	var (
		from, to  *time.Time
		intervals []record.Interval
	)
	err := e.store.ScanAll(ctx, func(rec record.Record) error {
		iv := rec.Valid
		if iv.From != nil && (from == nil || iv.From.Before(*from)) {
			t := *iv.From
			from = &t
		}
		if iv.To != nil && (to == nil || iv.To.After(*to)) {
			t := *iv.To
			to = &t
		}
		intervals = append(intervals, iv)
		return nil
	})
	if err != nil {
		return Timeline{}, fmt.Errorf("scan store for timeline: %w", err)
	}

	tl := Timeline{From: from, To: to}
	if from != nil && to != nil {
		tl.YearCounts = yearCounts(intervals, from.Year(), to.Year())
	}

	e.timelineCache.Set(key, tl)
	return tl, nil
}

// yearCounts computes, per calendar year of the extent, how many intervals
// overlap that year.
func yearCounts(intervals []record.Interval, firstYear, lastYear int) []YearCount {
	counts := make([]YearCount, 0, lastYear-firstYear+1)
	for year := firstYear; year <= lastYear; year++ {
		yStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		yEnd := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
		yearIv := record.Interval{From: &yStart, To: &yEnd}

		n := 0
		for _, iv := range intervals {
			if iv.Overlaps(yearIv) {
				n++
			}
		}
		counts = append(counts, YearCount{Year: year, Count: n})
	}
	return counts
}

// errorType maps engine errors to the metrics label taxonomy.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, geo.ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, temporal.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrInvalidCursor):
		return "invalid_cursor"
	case errors.Is(err, ErrInconsistent):
		return "inconsistent"
	case errors.Is(err, record.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
