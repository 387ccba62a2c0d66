// Package metrics exposes Prometheus counters for the credential lifecycle
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth outcomes and HTTP traffic. It satisfies
// services.Recorder.
type Collector struct {
	outcomes        *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	rateLimitDenied *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acedema_auth_operations_total",
			Help: "Credential lifecycle operations by outcome kind.",
		}, []string{"operation", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acedema_http_responses_total",
			Help: "HTTP responses by route and status code.",
		}, []string{"route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acedema_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acedema_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(c.outcomes, c.httpStatus, c.httpLatency, c.rateLimitDenied)
	return c
}

// Observe counts one operation, labelled with common.Kind(err).
func (c *Collector) Observe(operation string, err error) {
	c.outcomes.WithLabelValues(operation, common.Kind(err)).Inc()
}

func (c *Collector) RecordHTTP(route string, status int, d time.Duration) {
	c.httpStatus.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimitDenied.WithLabelValues(route).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
