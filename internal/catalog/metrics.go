package catalog

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// catalogReqs counts catalog calls by operation and outcome
	// (ok, unavailable, missing).
	catalogReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of catalog calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// catalogLat records end-to-end call duration including retries.
	catalogLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of catalog calls in seconds, retries included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(catalogReqs, catalogLat)
}

func observe(op string, start time.Time, err error) {
	catalogLat.WithLabelValues(op).Observe(time.Since(start).Seconds())
	catalogReqs.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRecordMissing):
		return "missing"
	default:
		return "unavailable"
	}
}
