// Package metrics exposes run and HTTP metrics through a private
// Prometheus registry. Batch runs dump it to a node-exporter textfile;
// the server exposes it on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"organigram/internal/domain"
)

// Registry holds all metrics for the application
type Registry struct {
	// Run Metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	LookupsTotal      *prometheus.CounterVec
	WarningsTotal     *prometheus.CounterVec
	AgentsTotal       prometheus.Gauge
	PlaceholdersTotal prometheus.Gauge
	ContainersTotal   prometheus.Gauge

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// RunStats summarizes one resolution run
type RunStats struct {
	Agents       int
	Placeholders int
	Containers   int
	LookupsFound int
	LookupsMiss  int
	LookupErrors int
	Warnings     []domain.Warning
	Duration     time.Duration
	Failed       bool
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initRunMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "organigram_runs_total",
			Help: "Total number of resolution runs",
		},
		[]string{"result"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "organigram_run_duration_seconds",
			Help:    "Resolution run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	r.LookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "organigram_directory_lookups_total",
			Help: "Total number of on-demand directory lookups",
		},
		[]string{"result"},
	)

	r.WarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "organigram_warnings_total",
			Help: "Total number of resolution warnings",
		},
		[]string{"kind"},
	)

	r.AgentsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "organigram_agents",
			Help: "Real agents in the last chart",
		},
	)

	r.PlaceholdersTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "organigram_placeholders",
			Help: "Placeholder agents in the last chart",
		},
	)

	r.ContainersTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "organigram_containers",
			Help: "Containers in the last chart",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "organigram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "organigram_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

// RecordRun records the outcome of one run
func (r *Registry) RecordRun(s RunStats) {
	if s.Failed {
		r.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	r.RunsTotal.WithLabelValues("success").Inc()
	r.RunDuration.Observe(s.Duration.Seconds())

	r.LookupsTotal.WithLabelValues("found").Add(float64(s.LookupsFound))
	r.LookupsTotal.WithLabelValues("missed").Add(float64(s.LookupsMiss))
	r.LookupsTotal.WithLabelValues("error").Add(float64(s.LookupErrors))

	for kind, n := range domain.CountWarnings(s.Warnings) {
		r.WarningsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}

	r.AgentsTotal.Set(float64(s.Agents))
	r.PlaceholdersTotal.Set(float64(s.Placeholders))
	r.ContainersTotal.Set(float64(s.Containers))
}

// RecordHTTPRequest records an HTTP request
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
