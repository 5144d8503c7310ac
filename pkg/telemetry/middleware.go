// Copyright 2025 Certen Protocol
//
// HTTP instrumentation - wraps a query handler with request duration and
// error-count metrics

package telemetry

import (
	"net/http"
	"strconv"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps handler so every request against route is timed and, on
// a 4xx or 5xx response, counted against QueryRequestErrors.
func (m *Metrics) Instrument(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler(rec, r)

		m.QueryRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		if rec.status >= 400 {
			m.QueryRequestErrors.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}
	}
}
