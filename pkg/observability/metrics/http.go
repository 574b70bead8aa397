package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serverRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "i18n_server_request_duration_seconds",
			Help:    "Catalog server request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route", "status"},
	)

	serverRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_server_requests_total",
			Help: "Total number of catalog server requests",
		},
		[]string{"method", "route", "status"},
	)

	serverRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "i18n_server_requests_in_flight",
			Help: "Catalog server requests currently being served",
		},
	)
)

// ObserveRequest records one request served by the catalog server. route
// must be the route template, never the raw URL.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	serverRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	serverRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// TrackInFlight counts a request as in flight until the returned func is called.
func TrackInFlight() (done func()) {
	serverRequestsInFlight.Inc()
	return serverRequestsInFlight.Dec
}
