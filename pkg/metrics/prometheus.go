package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	refreshes   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	volatility  prometheus.Gauge
	latency     *prometheus.HistogramVec
	published   *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "karion_snapshot_refresh_total",
				Help: "Snapshot refreshes by feed and data source",
			},
			[]string{"feed", "source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "karion_errors_total",
				Help: "Errors encountered by kind",
			},
			[]string{"type"},
		),
		volatility: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "karion_volatility_level",
				Help: "Last observed volatility index level",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "karion_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		published: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "karion_overviews_published_total",
				Help: "Scheduled overviews delivered per channel",
			},
			[]string{"channel"},
		),
	}
}

func (r *Recorder) RecordSnapshotRefresh(feed string, source models.Source) {
	r.refreshes.WithLabelValues(feed, string(source)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordVolatility(level float64) {
	r.volatility.Set(level)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPublished counts one overview delivered on channel (kafka, websocket).
func (r *Recorder) RecordPublished(channel string) {
	r.published.WithLabelValues(channel).Inc()
}

var _ domrepo.Metrics = (*Recorder)(nil)
