// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/postime/chronomap/internal/engine"
	"github.com/postime/chronomap/internal/geo"
	"github.com/postime/chronomap/internal/record"
)

// recordsRequest holds the parsed query parameters of the records and export
// endpoints. Region bounds default to the whole world when none are given;
// west > east expresses an antimeridian-crossing region.
type recordsRequest struct {
	West      float64 `validate:"gte=-180,lte=180"`
	South     float64 `validate:"latitude"`
	East      float64 `validate:"gte=-180,lte=180"`
	North     float64 `validate:"latitude"`
	ValidFrom string  `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ValidTo   string  `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit     int     `validate:"omitempty,min=1,max=1000"`
	Cursor    string  `validate:"omitempty,base64url"`
}

var regionParams = []string{"west", "south", "east", "north"}

// parseRecordsRequest extracts the request from query parameters. Region
// parameters are all-or-none: a partial region is a caller error, not a
// silently defaulted one.
func parseRecordsRequest(r *http.Request) (recordsRequest, error) {
	q := r.URL.Query()
	req := recordsRequest{West: -180, South: -90, East: 180, North: 90}

	present := 0
	for _, name := range regionParams {
		if q.Has(name) {
			present++
		}
	}
	if present > 0 && present < len(regionParams) {
		return req, fmt.Errorf("region requires all of west, south, east and north")
	}
	if present == len(regionParams) {
		for name, dst := range map[string]*float64{
			"west":  &req.West,
			"south": &req.South,
			"east":  &req.East,
			"north": &req.North,
		} {
			v, err := strconv.ParseFloat(q.Get(name), 64)
			if err != nil {
				return req, fmt.Errorf("invalid %s: %q is not a number", name, q.Get(name))
			}
			*dst = v
		}
	}

	req.ValidFrom = q.Get("valid_from")
	req.ValidTo = q.Get("valid_to")
	req.Cursor = q.Get("cursor")

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return req, fmt.Errorf("invalid limit: %q is not an integer", q.Get("limit"))
		}
		req.Limit = limit
	}

	return req, nil
}

// region returns the request's bounding box.
func (req recordsRequest) region() geo.BoundingBox {
	return geo.BoundingBox{
		West:  req.West,
		South: req.South,
		East:  req.East,
		North: req.North,
	}
}

// interval returns the request's validity interval. The datetime validator
// tag has already run, so parse failures do not occur for validated requests.
func (req recordsRequest) interval() (record.Interval, error) {
	var iv record.Interval
	if req.ValidFrom != "" {
		t, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return iv, fmt.Errorf("invalid valid_from: %w", err)
		}
		iv.From = &t
	}
	if req.ValidTo != "" {
		t, err := time.Parse(time.RFC3339, req.ValidTo)
		if err != nil {
			return iv, fmt.Errorf("invalid valid_to: %w", err)
		}
		iv.To = &t
	}
	return iv, nil
}

// queryParams assembles engine query parameters from the request.
func (req recordsRequest) queryParams() (engine.QueryParams, error) {
	iv, err := req.interval()
	if err != nil {
		return engine.QueryParams{}, err
	}
	return engine.QueryParams{
		Region:    req.region(),
		TimeRange: iv,
		PageSize:  req.Limit,
		Cursor:    req.Cursor,
	}, nil
}
