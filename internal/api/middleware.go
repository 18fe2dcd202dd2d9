package api

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"shiftnav/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// MetricsMiddleware counts requests and observes latency per method.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

// RateLimitMiddleware applies a process-wide token bucket. Solves are cheap
// once cached but an uncached zone sweep is not, so the bucket protects the
// engine rather than individual clients.
func RateLimitMiddleware(rps float64, burst int, next http.Handler) http.Handler {
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "retry later", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
