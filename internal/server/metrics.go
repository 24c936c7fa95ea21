package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	simRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exomoon_simulations_total",
		Help: "Completed simulation requests by mode and outcome.",
	}, []string{"mode", "outcome"})

	simDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exomoon_simulation_duration_seconds",
		Help:    "Wall-clock time of simulation requests.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"mode"})

	archiveLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exomoon_archive_lookups_total",
		Help: "Exoplanet archive lookups by result.",
	}, []string{"result"})
)

func observeRun(mode string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	simRuns.WithLabelValues(mode, outcome).Inc()
	simDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func observeLookup(result string) {
	archiveLookups.WithLabelValues(result).Inc()
}
