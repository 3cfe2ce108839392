package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"Karion/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordSnapshotRefresh("volatility", models.SourceSynthetic)
	r.RecordSnapshotRefresh("volatility", models.SourceSynthetic)
	r.RecordError("snapshot_prices")
	r.RecordVolatility(21.5)
	r.RecordPublished("kafka")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.refreshes.WithLabelValues("volatility", "synthetic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("snapshot_prices")))
	assert.Equal(t, 21.5, testutil.ToFloat64(r.volatility))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.published.WithLabelValues("kafka")))
}
