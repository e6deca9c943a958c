// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package geo

import (
	"fmt"

	"github.com/goccy/go-json"
)

// GeoJSONGeometry is the RFC 7946 geometry representation used by the export
// endpoint and the dataset file format.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature wrapping one record.
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is the GeoJSON document returned by the export endpoint.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection creates an empty FeatureCollection with capacity n.
func NewFeatureCollection(n int) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, n),
	}
}

// ToGeoJSON converts a Geometry into its GeoJSON representation.
// Polygon rings are emitted closed (first vertex repeated last) per RFC 7946.
func ToGeoJSON(g Geometry) (GeoJSONGeometry, error) {
	switch geom := g.(type) {
	case Point:
		coords, err := json.Marshal([2]float64{geom.Lon, geom.Lat})
		if err != nil {
			return GeoJSONGeometry{}, fmt.Errorf("marshal point coordinates: %w", err)
		}
		return GeoJSONGeometry{Type: "Point", Coordinates: coords}, nil

	case Polygon:
		ring := make([][2]float64, 0, len(geom.Ring)+1)
		for _, v := range geom.Ring {
			ring = append(ring, [2]float64{v.Lon, v.Lat})
		}
		if len(geom.Ring) > 0 {
			ring = append(ring, [2]float64{geom.Ring[0].Lon, geom.Ring[0].Lat})
		}
		coords, err := json.Marshal([][][2]float64{ring})
		if err != nil {
			return GeoJSONGeometry{}, fmt.Errorf("marshal polygon coordinates: %w", err)
		}
		return GeoJSONGeometry{Type: "Polygon", Coordinates: coords}, nil

	default:
		return GeoJSONGeometry{}, fmt.Errorf("unsupported geometry type %T", g)
	}
}

// FromGeoJSON parses a GeoJSON geometry into the corresponding Geometry.
// Only Point and Polygon (single ring) are supported; the closing vertex of
// a polygon ring is dropped on the way in.
func FromGeoJSON(gj GeoJSONGeometry) (Geometry, error) {
	switch gj.Type {
	case "Point":
		var coords [2]float64
		if err := json.Unmarshal(gj.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parse point coordinates: %w", err)
		}
		return Point{Lon: coords[0], Lat: coords[1]}, nil

	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(gj.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("polygon has no rings")
		}
		// Interior rings (holes) are not supported; only the exterior ring
		// participates in intersection tests.
		outer := rings[0]
		ring := make([]Point, 0, len(outer))
		for _, c := range outer {
			ring = append(ring, Point{Lon: c[0], Lat: c[1]})
		}
		// Drop the repeated closing vertex.
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		return Polygon{Ring: ring}, nil

	default:
		return nil, fmt.Errorf("unsupported GeoJSON geometry type %q", gj.Type)
	}
}
