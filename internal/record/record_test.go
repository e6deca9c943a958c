// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package record

import (
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/postime/chronomap/internal/geo"
)

func tm(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestIntervalOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "both unbounded",
			a:    Interval{},
			b:    Interval{},
			want: true,
		},
		{
			name: "overlapping bounded",
			a:    Interval{From: tm("1900-01-01T00:00:00Z"), To: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("1940-01-01T00:00:00Z"), To: tm("1960-01-01T00:00:00Z")},
			want: true,
		},
		{
			name: "disjoint bounded",
			a:    Interval{From: tm("1900-01-01T00:00:00Z"), To: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("1960-01-01T00:00:00Z"), To: tm("1970-01-01T00:00:00Z")},
			want: false,
		},
		{
			name: "touching half-open boundaries do not overlap",
			a:    Interval{From: tm("1900-01-01T00:00:00Z"), To: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("1950-01-01T00:00:00Z"), To: tm("1960-01-01T00:00:00Z")},
			want: false,
		},
		{
			name: "unbounded start overlaps early",
			a:    Interval{To: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("1800-01-01T00:00:00Z"), To: tm("1900-01-01T00:00:00Z")},
			want: true,
		},
		{
			name: "unbounded end overlaps late",
			a:    Interval{From: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("2000-01-01T00:00:00Z"), To: tm("2010-01-01T00:00:00Z")},
			want: true,
		},
		{
			name: "unbounded end misses earlier interval",
			a:    Interval{From: tm("1950-01-01T00:00:00Z")},
			b:    Interval{From: tm("1900-01-01T00:00:00Z"), To: tm("1950-01-01T00:00:00Z")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()

	orig := Record{
		ID:       "bridge-17",
		Geometry: geo.Point{Lon: 4.9, Lat: 52.37},
		Valid: Interval{
			From: tm("1932-01-01T00:00:00Z"),
		},
		Attrs: map[string]interface{}{
			"name": "Berlage Bridge",
		},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != orig.ID {
		t.Errorf("ID = %q, want %q", got.ID, orig.ID)
	}
	if got.Geometry != orig.Geometry {
		t.Errorf("Geometry = %v, want %v", got.Geometry, orig.Geometry)
	}
	if got.Valid.From == nil || !got.Valid.From.Equal(*orig.Valid.From) {
		t.Errorf("Valid.From = %v, want %v", got.Valid.From, orig.Valid.From)
	}
	if got.Valid.To != nil {
		t.Errorf("Valid.To = %v, want nil", got.Valid.To)
	}
	if got.Attrs["name"] != "Berlage Bridge" {
		t.Errorf("Attrs = %v", got.Attrs)
	}
}

func TestRecordJSONPolygonGeometry(t *testing.T) {
	t.Parallel()

	orig := Record{
		ID: "district-3",
		Geometry: geo.Polygon{Ring: []geo.Point{
			{Lon: 0, Lat: 0},
			{Lon: 1, Lat: 0},
			{Lon: 1, Lat: 1},
		}},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	pg, ok := got.Geometry.(geo.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", got.Geometry)
	}
	if len(pg.Ring) != 3 {
		t.Errorf("ring length = %d, want 3", len(pg.Ring))
	}
}
