package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EngineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "karion",
			Subsystem: "engine",
			Name:      "latency_seconds",
			Help:      "Latency of analytics endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EngineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karion",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Errors by analytics endpoint",
		},
		[]string{"endpoint"},
	)

	SimulationTrials = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "karion",
			Subsystem: "engine",
			Name:      "simulation_trials_total",
			Help:      "Monte Carlo trials executed",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EngineLatency, EngineErrors, SimulationTrials)
	})
}

// Track observes the latency of an endpoint; call the returned func with the handler error.
func Track(endpoint string) func(err error) {
	start := time.Now()
	return func(err error) {
		EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			EngineErrors.WithLabelValues(endpoint).Inc()
		}
	}
}
