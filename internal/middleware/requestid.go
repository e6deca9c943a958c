// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

// Package middleware provides HTTP middleware: request IDs and Prometheus
// instrumentation.
package middleware

import (
	"net/http"

	"github.com/postime/chronomap/internal/logging"
)

// RequestID assigns a unique ID to each request, propagating it through the
// response header and the request context so log lines of one request can be
// correlated. An incoming X-Request-ID from an upstream proxy is reused.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
