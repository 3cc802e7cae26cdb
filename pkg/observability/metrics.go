package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// RecordsDetected counts dispute records assembled from pasted text, per layout
	RecordsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_records_detected_total",
			Help: "Dispute records assembled from pasted text",
		},
		[]string{"format"},
	)

	// RecordsPersisted counts dispute rows written, per ingestion source and outcome
	RecordsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_records_persisted_total",
			Help: "Dispute rows written to storage",
		},
		[]string{"source", "outcome"},
	)

	// SheetRows counts spreadsheet rows handled by imports
	SheetRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_sheet_rows_total",
			Help: "Spreadsheet rows processed by imports",
		},
		[]string{"table", "outcome"},
	)

	// ConversionEntries counts currency conversion ledger entries, per outcome
	ConversionEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_conversion_entries_total",
			Help: "Currency conversion entries by outcome",
		},
		[]string{"outcome"},
	)
)

// NewMetricsMiddleware creates a middleware that collects Prometheus metrics
func NewMetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ActiveRequests.Inc()
			defer ActiveRequests.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// Route pattern keeps label cardinality bounded
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		})
	}
}
