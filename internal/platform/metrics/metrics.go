// Package metrics wires the kiosk service's Prometheus metrics, grounded on cuemby-warren's
// pkg/metrics package (package-level vector metrics registered against a registry, a Timer
// helper for latency histograms, an http.Handler exposing them). Unlike warren's use of the
// global default registry, this package builds its own prometheus.Registry so
// internal/eventbus's bus-owned collectors (queue depth, dispatched counters) can be registered
// alongside these without colliding with anything else in the process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RESTRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_rest_requests_total",
			Help: "Total number of REST requests by route and status.",
		},
		[]string{"route", "status"},
	)

	RESTRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kiosk_rest_request_duration_seconds",
			Help:    "REST request duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	DispensingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kiosk_dispensing_duration_seconds",
			Help:    "Time from dispense start to completion for one cart.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	DispensingLineFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_dispensing_line_failures_total",
			Help: "Total number of dispensed line items that exhausted their retry budget.",
		},
	)

	ReservationsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kiosk_reservations_active",
			Help: "Number of currently held reservations.",
		},
	)

	TelemetryPublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_telemetry_publish_failures_total",
			Help: "Total number of telemetry events dropped after a failed Kafka publish.",
		},
	)
)

// Collector exposes its Prometheus collectors for registration (implemented by
// *eventbus.Bus among others).
type Collector interface {
	Collectors() []prometheus.Collector
}

// NewRegistry builds a registry carrying this package's own metrics plus every given
// component's collectors (e.g. the event bus's queue-depth gauges).
func NewRegistry(components ...Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		RESTRequestsTotal, RESTRequestDuration, DispensingDuration,
		DispensingLineFailuresTotal, ReservationsActive, TelemetryPublishFailuresTotal,
	)
	for _, c := range components {
		reg.MustRegister(c.Collectors()...)
	}
	return reg
}

// Handler returns the HTTP handler serving reg's metrics in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Timer times an operation and records its duration to a histogram on ObserveDuration.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer { return &Timer{start: time.Now()} }

func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}
