// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package geo provides the geometry types Chronomap indexes and queries:
// points, simple polygons, and axis-aligned bounding boxes with antimeridian
// support. Intersection tests are exact; the spatial index relies on that to
// return no false positives.
package geo

import (
	"errors"
	"fmt"
)

// ErrInvalidRegion indicates a malformed query region (latitude inversion or
// out-of-range coordinates).
var ErrInvalidRegion = errors.New("invalid region")

// Geometry is the closed set of shapes a record may carry.
// Implementations are Point and Polygon.
type Geometry interface {
	// Bounds returns the non-wrapping bounding box of the geometry.
	Bounds() BoundingBox

	// IntersectsBox reports whether the geometry intersects box.
	// box must not wrap the antimeridian; callers split wrapped
	// regions first.
	IntersectsBox(box BoundingBox) bool

	// Validate checks the geometry's coordinates.
	Validate() error
}

// Point is a single WGS84 coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Bounds returns a degenerate box covering the point.
func (p Point) Bounds() BoundingBox {
	return BoundingBox{West: p.Lon, South: p.Lat, East: p.Lon, North: p.Lat}
}

// IntersectsBox reports whether the point lies inside box (edges inclusive).
func (p Point) IntersectsBox(box BoundingBox) bool {
	return box.ContainsPoint(p)
}

// Validate checks the point's coordinates are in range.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidRegion, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidRegion, p.Lon)
	}
	return nil
}

// Polygon is a simple (non-self-intersecting) ring of vertices. The ring is
// stored open: the closing edge from the last vertex back to the first is
// implicit. Polygons never wrap the antimeridian.
type Polygon struct {
	Ring []Point `json:"ring"`
}

// Bounds returns the bounding box of the ring.
func (pg Polygon) Bounds() BoundingBox {
	if len(pg.Ring) == 0 {
		return BoundingBox{}
	}

	b := pg.Ring[0].Bounds()
	for _, v := range pg.Ring[1:] {
		if v.Lon < b.West {
			b.West = v.Lon
		}
		if v.Lon > b.East {
			b.East = v.Lon
		}
		if v.Lat < b.South {
			b.South = v.Lat
		}
		if v.Lat > b.North {
			b.North = v.Lat
		}
	}
	return b
}

// IntersectsBox reports whether the polygon and box share any point.
// The test is exact: a vertex inside the box, a box corner inside the
// polygon, or a crossing between a ring edge and a box edge.
func (pg Polygon) IntersectsBox(box BoundingBox) bool {
	if len(pg.Ring) == 0 {
		return false
	}

	for _, v := range pg.Ring {
		if box.ContainsPoint(v) {
			return true
		}
	}

	for _, corner := range box.corners() {
		if pg.ContainsPoint(corner) {
			return true
		}
	}

	boxEdges := box.edges()
	n := len(pg.Ring)
	for i := 0; i < n; i++ {
		a := pg.Ring[i]
		b := pg.Ring[(i+1)%n]
		for _, e := range boxEdges {
			if segmentsIntersect(a, b, e[0], e[1]) {
				return true
			}
		}
	}

	return false
}

// ContainsPoint reports whether p is inside the polygon, using the even-odd
// ray casting rule. Points exactly on an edge may report either way; the
// vertex and edge-crossing checks in IntersectsBox cover boundary contact.
func (pg Polygon) ContainsPoint(p Point) bool {
	inside := false
	n := len(pg.Ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := pg.Ring[i], pg.Ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			x := vi.Lon + (p.Lat-vi.Lat)/(vj.Lat-vi.Lat)*(vj.Lon-vi.Lon)
			if p.Lon < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Validate checks the ring has at least three vertices, all in range.
func (pg Polygon) Validate() error {
	if len(pg.Ring) < 3 {
		return fmt.Errorf("%w: polygon ring needs at least 3 vertices, got %d", ErrInvalidRegion, len(pg.Ring))
	}
	for i, v := range pg.Ring {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("ring vertex %d: %w", i, err)
		}
	}
	return nil
}

// BoundingBox is an axis-aligned region in WGS84 coordinates. When West > East
// the box wraps the antimeridian and covers [West, 180] plus [-180, East].
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Wraps reports whether the box crosses the antimeridian.
func (b BoundingBox) Wraps() bool {
	return b.West > b.East
}

// Validate checks coordinate ranges and latitude ordering. A wrapped box
// (West > East) is valid; an inverted latitude pair is not.
func (b BoundingBox) Validate() error {
	if b.South < -90 || b.South > 90 || b.North < -90 || b.North > 90 {
		return fmt.Errorf("%w: latitude out of range [-90, 90]", ErrInvalidRegion)
	}
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return fmt.Errorf("%w: longitude out of range [-180, 180]", ErrInvalidRegion)
	}
	if b.South > b.North {
		return fmt.Errorf("%w: south %f exceeds north %f", ErrInvalidRegion, b.South, b.North)
	}
	return nil
}

// Split decomposes the box into at most two non-wrapping boxes. A box that
// does not wrap is returned unchanged.
func (b BoundingBox) Split() []BoundingBox {
	if !b.Wraps() {
		return []BoundingBox{b}
	}
	return []BoundingBox{
		{West: b.West, South: b.South, East: 180, North: b.North},
		{West: -180, South: b.South, East: b.East, North: b.North},
	}
}

// ContainsPoint reports whether p lies inside the box, edges inclusive.
// Handles wrapped boxes.
func (b BoundingBox) ContainsPoint(p Point) bool {
	if p.Lat < b.South || p.Lat > b.North {
		return false
	}
	if b.Wraps() {
		return p.Lon >= b.West || p.Lon <= b.East
	}
	return p.Lon >= b.West && p.Lon <= b.East
}

// Intersects reports whether two boxes overlap, edges inclusive.
// Receiver may wrap; other must not.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	if b.South > other.North || b.North < other.South {
		return false
	}
	for _, half := range b.Split() {
		if half.West <= other.East && half.East >= other.West {
			return true
		}
	}
	return false
}

func (b BoundingBox) corners() [4]Point {
	return [4]Point{
		{Lon: b.West, Lat: b.South},
		{Lon: b.East, Lat: b.South},
		{Lon: b.East, Lat: b.North},
		{Lon: b.West, Lat: b.North},
	}
}

func (b BoundingBox) edges() [4][2]Point {
	c := b.corners()
	return [4][2]Point{
		{c[0], c[1]},
		{c[1], c[2]},
		{c[2], c[3]},
		{c[3], c[0]},
	}
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 share any point,
// including collinear overlap and endpoint touches.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(p3, p4, p1):
		return true
	case d2 == 0 && onSegment(p3, p4, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, p3):
		return true
	case d4 == 0 && onSegment(p1, p2, p4):
		return true
	}
	return false
}

// cross returns the orientation of p relative to segment a-b.
func cross(a, b, p Point) float64 {
	return (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
}

// onSegment reports whether p, known collinear with a-b, lies within the
// segment's extent.
func onSegment(a, b, p Point) bool {
	return min(a.Lon, b.Lon) <= p.Lon && p.Lon <= max(a.Lon, b.Lon) &&
		min(a.Lat, b.Lat) <= p.Lat && p.Lat <= max(a.Lat, b.Lat)
}
