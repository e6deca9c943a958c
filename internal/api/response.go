// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/postime/chronomap/internal/logging"
	"github.com/postime/chronomap/internal/validation"
)

// APIResponse is the standard envelope of every JSON endpoint except the
// GeoJSON export, which returns a bare FeatureCollection for map clients.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// APIMeta carries per-response metadata.
type APIMeta struct {
	RequestID  string          `json:"request_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	DurationMs float64         `json:"duration_ms"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta describes one page of a cursor-paginated result set.
type PaginationMeta struct {
	Total      int    `json:"total"`
	Count      int    `json:"count"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Error codes returned by the API.
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidRegion = "INVALID_REGION"
	ErrCodeInvalidRange  = "INVALID_RANGE"
	ErrCodeInvalidCursor = "INVALID_CURSOR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInconsistency = "DATA_INCONSISTENCY"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeNotReady      = "NOT_READY"
)

// ResponseWriter builds enveloped responses for one request.
type ResponseWriter struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

// NewResponseWriter creates a ResponseWriter. The construction time anchors
// the reported request duration.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, start: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: float64(time.Since(rw.start).Microseconds()) / 1000.0,
	}
}

// Success writes a 200 response with the given payload.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    rw.meta(),
	})
}

// SuccessWithPagination writes a 200 response with pagination metadata.
func (rw *ResponseWriter) SuccessWithPagination(data interface{}, pagination *PaginationMeta) {
	meta := rw.meta()
	meta.Pagination = pagination
	rw.writeJSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error writes an error response with the given status and code.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

// ErrorWithDetails writes an error response including structured details.
func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details map[string]interface{}) {
	rw.writeJSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(rw.r.Context()),
		},
		Meta: rw.meta(),
	})
}

// BadRequest writes a 400 response.
func (rw *ResponseWriter) BadRequest(code, message string) {
	rw.Error(http.StatusBadRequest, code, message)
}

// NotFound writes a 404 response.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// ValidationError writes a 400 response from struct validation failures.
func (rw *ResponseWriter) ValidationError(verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// InternalError writes a 500 response. The underlying error is logged, not
// exposed to the client.
func (rw *ResponseWriter) InternalError(err error) {
	logging.CtxErr(rw.r.Context(), err).
		Str("path", rw.r.URL.Path).
		Msg("internal error handling request")
	rw.Error(http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
}

func (rw *ResponseWriter) writeJSON(status int, payload APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(status)

	if err := json.NewEncoder(rw.w).Encode(payload); err != nil {
		logging.CtxErr(rw.r.Context(), err).Msg("failed to encode response")
	}
}
