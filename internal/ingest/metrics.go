package ingest

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestCompaniesTotal       *prometheus.CounterVec
	ingestDedupHitsTotal       prometheus.Counter
	ingestUploadsTotal         prometheus.Counter
	ingestFetchDurationSeconds prometheus.Histogram
	ingestActiveWorkers        prometheus.Gauge

	metricsOnce sync.Once
)

// InitMetrics initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func InitMetrics() {
	metricsOnce.Do(func() {
		ingestCompaniesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_companies_total",
				Help: "Total number of companies reaching a terminal state, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		ingestDedupHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_dedup_hits_total",
				Help: "Total number of companies that reused an existing stored image.",
			},
		)

		ingestUploadsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_uploads_total",
				Help: "Total number of favicon blobs uploaded to the blob store.",
			},
		)

		ingestFetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_fetch_duration_seconds",
				Help:    "Histogram of favicon fetch+normalize latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		ingestActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_active_workers",
				Help: "Number of workers currently processing a company.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOutcome records one terminal company outcome.
func ObserveOutcome(o Outcome) {
	if ingestCompaniesTotal == nil {
		return
	}
	label := string(StateDone)
	if !o.Done() {
		label = string(o.Reason)
	}
	ingestCompaniesTotal.WithLabelValues(label).Inc()
	if o.Done() && o.Reused {
		ingestDedupHitsTotal.Inc()
	}
}

// ObserveUpload counts a completed blob upload.
func ObserveUpload() {
	if ingestUploadsTotal == nil {
		return
	}
	ingestUploadsTotal.Inc()
}

// ObserveFetchDuration records one favicon fetch+normalize latency.
func ObserveFetchDuration(d time.Duration) {
	if ingestFetchDurationSeconds == nil {
		return
	}
	ingestFetchDurationSeconds.Observe(d.Seconds())
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if ingestActiveWorkers == nil {
		return
	}
	ingestActiveWorkers.Inc()
}

// WorkerFinished decrements the active worker gauge.
func WorkerFinished() {
	if ingestActiveWorkers == nil {
		return
	}
	ingestActiveWorkers.Dec()
}
