// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package api

import (
	"errors"
	"net/http"

	"github.com/postime/chronomap/internal/engine"
	"github.com/postime/chronomap/internal/geo"
	"github.com/postime/chronomap/internal/record"
	"github.com/postime/chronomap/internal/temporal"
)

// respondEngineError maps engine errors onto HTTP responses. Validation
// failures are the caller's fault and return 400 with a specific code;
// ErrInconsistent and unknown errors are server faults and return 500 with
// the detail kept out of the response body.
func respondEngineError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, geo.ErrInvalidRegion):
		rw.BadRequest(ErrCodeInvalidRegion, err.Error())
	case errors.Is(err, temporal.ErrInvalidRange):
		rw.BadRequest(ErrCodeInvalidRange, err.Error())
	case errors.Is(err, engine.ErrInvalidCursor):
		rw.BadRequest(ErrCodeInvalidCursor, err.Error())
	case errors.Is(err, record.ErrNotFound):
		rw.NotFound("record not found")
	case errors.Is(err, engine.ErrInconsistent):
		// Already logged at the fault site with the record ID.
		rw.Error(http.StatusInternalServerError, ErrCodeInconsistency,
			"The dataset index is inconsistent; results would be incomplete")
	default:
		rw.InternalError(err)
	}
}
