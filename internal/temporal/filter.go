// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package temporal filters records by half-open validity intervals.
// All functions are pure; the package holds no state.
package temporal

import (
	"errors"
	"fmt"
	"time"

	"github.com/postime/chronomap/internal/record"
)

// ErrInvalidRange indicates a query time range with both bounds set and
// To <= From.
var ErrInvalidRange = errors.New("invalid time range")

// ValidateRange checks a query time range. Either bound may be nil
// (unbounded); when both are set, To must be strictly after From.
func ValidateRange(from, to *time.Time) error {
	if from != nil && to != nil && !to.After(*from) {
		return fmt.Errorf("%w: to %s not after from %s",
			ErrInvalidRange, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
func Overlaps(a, b record.Interval) bool {
	return a.Overlaps(b)
}

// Filter returns the records whose validity interval overlaps timeRange,
// preserving input order. A zero timeRange (both bounds nil) matches all.
func Filter(records []record.Record, timeRange record.Interval) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if rec.Valid.Overlaps(timeRange) {
			out = append(out, rec)
		}
	}
	return out
}
