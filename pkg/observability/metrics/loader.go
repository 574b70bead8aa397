package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load sources recorded by RecordLoad.
const (
	LoadSourceMemory   = "memory"
	LoadSourceStorage  = "storage"
	LoadSourceNetwork  = "network"
	LoadSourceDegraded = "degraded"
)

var (
	// catalogLoadsTotal counts LoadMessages results by where the catalog came from.
	catalogLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_catalog_loads_total",
			Help: "Total number of catalog loads by source",
		},
		[]string{"source"},
	)

	catalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "i18n_catalog_fetch_duration_seconds",
			Help:    "Catalog fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"fetcher", "outcome"},
	)

	catalogFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_catalog_fetch_failures_total",
			Help: "Total number of failed catalog fetches",
		},
		[]string{"fetcher"},
	)

	// storageFailuresTotal counts storage errors absorbed by the persistent cache.
	storageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_storage_failures_total",
			Help: "Total number of absorbed persistent storage failures",
		},
		[]string{"operation"},
	)

	cacheSweepDeletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "i18n_cache_sweep_deletions_total",
			Help: "Total number of expired cache records removed",
		},
	)
)

// RecordLoad counts one catalog load served from source.
func RecordLoad(source string) {
	catalogLoadsTotal.WithLabelValues(source).Inc()
}

// ObserveFetch records the duration of one fetch and counts it as a failure when err is set.
func ObserveFetch(fetcher string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		catalogFetchFailures.WithLabelValues(fetcher).Inc()
	}
	catalogFetchDuration.WithLabelValues(fetcher, outcome).Observe(duration.Seconds())
}

// RecordStorageFailure counts one absorbed storage failure for operation.
func RecordStorageFailure(operation string) {
	storageFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordSweep counts expired records removed by one sweep.
func RecordSweep(removed int) {
	if removed > 0 {
		cacheSweepDeletions.Add(float64(removed))
	}
}
