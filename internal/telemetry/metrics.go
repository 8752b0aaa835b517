package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codechallenge",
		Subsystem: "runner",
		Name:      "runs_total",
		Help:      "Number of finished code runs by outcome.",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codechallenge",
		Subsystem: "runner",
		Name:      "run_duration_seconds",
		Help:      "Wall time from scheduling a run to its outcome.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 2.5, 3, 5, 10},
	}, []string{"outcome"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codechallenge",
		Subsystem: "notify",
		Name:      "published_total",
		Help:      "Number of notifications published by event and result.",
	}, []string{"event", "result"})
)

// ObserveRun records a finished run. Outcome is the submission status, "failed" or "canceled".
func ObserveRun(outcome string, d time.Duration) {
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func ObserveNotification(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notificationsTotal.WithLabelValues(event, result).Inc()
}
