package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesRunning    uint64
	AnalysesFailed     uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementAnalyses()        { atomic.AddUint64(&globalMetrics.AnalysesTotal, 1) }
func IncrementAnalysesRunning() { atomic.AddUint64(&globalMetrics.AnalysesRunning, 1) }
func DecrementAnalysesRunning() { atomic.AddUint64(&globalMetrics.AnalysesRunning, ^uint64(0)) }
func IncrementAnalysesFailed()  { atomic.AddUint64(&globalMetrics.AnalysesFailed, 1) }

// MetricsMiddleware counts requests and their outcomes
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 500 {
			atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
		}
	})
}

// MetricsHandler exposes current counters as JSON
func MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		out := map[string]any{
			"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
			"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
			"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
			"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
			"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
			"analyses_running":     atomic.LoadUint64(&globalMetrics.AnalysesRunning),
			"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
			"goroutines":           runtime.NumGoroutine(),
			"heap_alloc_bytes":     mem.HeapAlloc,
			"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
