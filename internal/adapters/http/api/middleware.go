package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/applyflow/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics. A panic
// in next becomes a 500 response.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				metrics.RecordErrorByComponent("http", "panic")
				if !wrapped.wroteHeader {
					writeError(wrapped, http.StatusInternalServerError, "internal_error", fmt.Errorf("panic: %v", rec))
				}
			}

			durationMs := metrics.Since(start)
			code := strconv.Itoa(wrapped.statusCode)
			metrics.RecordHTTPRequest(endpoint, r.Method, code)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, durationMs)

			if wrapped.statusCode >= http.StatusBadRequest {
				errorType := errorTypeOf(wrapped.statusCode)
				metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
				metrics.RecordErrorByType(errorType, severityOf(wrapped.statusCode))
				metrics.RecordErrorLatency("http", errorType, durationMs)
			}
		}()

		next.ServeHTTP(wrapped, r)
	}
}

// errorTypeOf returns a standardized error type based on HTTP status code.
func errorTypeOf(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "server_error"
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode == http.StatusConflict:
		return "conflict"
	case statusCode >= http.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// severityOf returns error severity based on HTTP status code.
func severityOf(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "high"
	case statusCode >= http.StatusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
