package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	moviesStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "movies_stored",
		Help: "Number of movies on the list at the last ranking pass.",
	})
	rankingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "movies_ranking_duration_seconds",
		Help:    "Time spent recomputing and saving rankings.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	moviesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movies_added_total",
		Help: "Movies added from the catalog.",
	})
)

func init() {
	prometheus.MustRegister(moviesStored, rankingDuration, moviesAdded)
}

func observeRanking(start time.Time, n int) {
	rankingDuration.Observe(time.Since(start).Seconds())
	moviesStored.Set(float64(n))
}
