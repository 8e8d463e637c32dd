package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Conversion metrics
	FilesConvertedTotal *prometheus.CounterVec
	FileRenderDuration  prometheus.Histogram
	BatchesTotal        prometheus.Counter
	BatchDuration       prometheus.Histogram
	PagesGenerated      prometheus.Gauge
	PagesFailed         prometheus.Gauge

	// Cache metrics
	MemoLookupsTotal *prometheus.CounterVec

	// Watch metrics
	WatchEventsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "protodoc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Conversion metrics
		FilesConvertedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_files_converted_total",
				Help: "Total number of proto files converted",
			},
			[]string{"status"},
		),
		FileRenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protodoc_file_render_duration_seconds",
				Help:    "Time to read, render and write one page",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		BatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protodoc_batches_total",
				Help: "Total number of conversion batches",
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protodoc_batch_duration_seconds",
				Help:    "Conversion batch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PagesGenerated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protodoc_last_batch_pages_generated",
				Help: "Pages generated by the most recent batch",
			},
		),
		PagesFailed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protodoc_last_batch_pages_failed",
				Help: "Files that failed in the most recent batch",
			},
		),

		// Cache metrics
		MemoLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_extract_memo_lookups_total",
				Help: "Extraction memo lookups by result",
			},
			[]string{"result"},
		),

		// Watch metrics
		WatchEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_watch_events_total",
				Help: "Source file events handled by the watcher",
			},
			[]string{"op"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FilesConvertedTotal,
		m.FileRenderDuration,
		m.BatchesTotal,
		m.BatchDuration,
		m.PagesGenerated,
		m.PagesFailed,
		m.MemoLookupsTotal,
		m.WatchEventsTotal,
	)

	return m
}

// ObserveFile records one converted file
func (m *Metrics) ObserveFile(status string, duration time.Duration) {
	m.FilesConvertedTotal.WithLabelValues(status).Inc()
	m.FileRenderDuration.Observe(duration.Seconds())
}

// ObserveBatch records one finished batch
func (m *Metrics) ObserveBatch(generated, failed int, duration time.Duration) {
	m.BatchesTotal.Inc()
	m.BatchDuration.Observe(duration.Seconds())
	m.PagesGenerated.Set(float64(generated))
	m.PagesFailed.Set(float64(failed))
}

// ObserveMemo records one extraction memo lookup
func (m *Metrics) ObserveMemo(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.MemoLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveWatchEvent records one handled watch event
func (m *Metrics) ObserveWatchEvent(op string) {
	m.WatchEventsTotal.WithLabelValues(op).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// routeName maps a request to a low-cardinality path label.
func HTTPMetricsMiddleware(metrics *Metrics, routeName func(*http.Request) string) func(http.Handler) http.Handler {
	if routeName == nil {
		routeName = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := routeName(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
