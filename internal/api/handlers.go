// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package api exposes the query engine over HTTP: paginated record queries,
// single-record lookup, the timeline summary, GeoJSON export, health checks
// and Prometheus metrics.
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/postime/chronomap/internal/config"
	"github.com/postime/chronomap/internal/engine"
	"github.com/postime/chronomap/internal/geo"
	"github.com/postime/chronomap/internal/logging"
	"github.com/postime/chronomap/internal/record"
	"github.com/postime/chronomap/internal/validation"
)

// Server holds the handler dependencies.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	ready  atomic.Bool
}

// NewServer creates the API server over a query engine. The server reports
// not-ready until SetReady is called after the boot dataset load.
func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	return &Server{cfg: cfg, engine: eng}
}

// SetReady marks the server ready to serve queries.
func (s *Server) SetReady() {
	s.ready.Store(true)
}

// parseAndValidate handles the shared parse/validate steps of the records and
// export endpoints. A false return means an error response was written.
func (s *Server) parseAndValidate(rw *ResponseWriter, r *http.Request) (recordsRequest, bool) {
	req, err := parseRecordsRequest(r)
	if err != nil {
		rw.BadRequest(ErrCodeBadRequest, err.Error())
		return req, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return req, false
	}
	return req, true
}

// handleListRecords serves GET {prefix}/records.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := s.parseAndValidate(rw, r)
	if !ok {
		return
	}

	params, err := req.queryParams()
	if err != nil {
		rw.BadRequest(ErrCodeBadRequest, err.Error())
		return
	}
	if params.PageSize <= 0 {
		params.PageSize = s.cfg.API.DefaultPageSize
	}
	if params.PageSize > s.cfg.API.MaxPageSize {
		params.PageSize = s.cfg.API.MaxPageSize
	}

	rs, err := s.engine.Query(r.Context(), params)
	if err != nil {
		respondEngineError(rw, err)
		return
	}

	rw.SuccessWithPagination(rs.Records, &PaginationMeta{
		Total:      rs.Total,
		Count:      len(rs.Records),
		HasMore:    rs.NextCursor != "",
		NextCursor: rs.NextCursor,
	})
}

// handleGetRecord serves GET {prefix}/records/{id}.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	rec, err := s.engine.Get(r.Context(), id)
	if err != nil {
		respondEngineError(rw, err)
		return
	}

	rw.Success(rec)
}

// handleTimeline serves GET {prefix}/timeline.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	tl, err := s.engine.Timeline(r.Context())
	if err != nil {
		respondEngineError(rw, err)
		return
	}

	rw.Success(tl)
}

// handleExportGeoJSON serves GET {prefix}/export/geojson. Unlike the other
// endpoints it returns a bare RFC 7946 FeatureCollection, not the response
// envelope, so the output feeds directly into map tooling.
func (s *Server) handleExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := s.parseAndValidate(rw, r)
	if !ok {
		return
	}

	iv, err := req.interval()
	if err != nil {
		rw.BadRequest(ErrCodeBadRequest, err.Error())
		return
	}

	recs, err := s.engine.Export(r.Context(), req.region(), iv)
	if err != nil {
		respondEngineError(rw, err)
		return
	}

	fc := geo.NewFeatureCollection(len(recs))
	for _, rec := range recs {
		feature, err := recordFeature(rec)
		if err != nil {
			rw.InternalError(err)
			return
		}
		fc.Features = append(fc.Features, feature)
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		logging.CtxErr(r.Context(), err).Msg("failed to encode GeoJSON export")
	}
}

// recordFeature converts a record to a GeoJSON feature. Validity bounds join
// the record attributes in the feature properties.
func recordFeature(rec record.Record) (geo.Feature, error) {
	gj, err := geo.ToGeoJSON(rec.Geometry)
	if err != nil {
		return geo.Feature{}, err
	}

	props := make(map[string]interface{}, len(rec.Attrs)+2)
	for k, v := range rec.Attrs {
		props[k] = v
	}
	if rec.Valid.From != nil {
		props["valid_from"] = rec.Valid.From.UTC().Format(time.RFC3339)
	}
	if rec.Valid.To != nil {
		props["valid_to"] = rec.Valid.To.UTC().Format(time.RFC3339)
	}

	return geo.Feature{
		Type:       "Feature",
		ID:         rec.ID,
		Geometry:   gj,
		Properties: props,
	}, nil
}

// handleHealthLive serves GET {prefix}/health/live.
func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// handleHealthReady serves GET {prefix}/health/ready. Not-ready means the
// boot dataset load has not completed yet.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !s.ready.Load() {
		rw.Error(http.StatusServiceUnavailable, ErrCodeNotReady, "dataset load in progress")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
