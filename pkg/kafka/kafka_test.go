package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	failures int
	calls    int
}

func (h *flakyHandler) Topic() string { return "t" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func fastRetry(max int) *ConsumerConfig {
	return &ConsumerConfig{RetryMax: max, BackoffMin: time.Millisecond, BackoffMax: 2 * time.Millisecond}
}

func TestHandleWithRetryRecovers(t *testing.T) {
	h := &flakyHandler{failures: 2}
	attempts, err := handleWithRetry(context.Background(), h, nil, fastRetry(3), make(chan struct{}))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleWithRetryGivesUp(t *testing.T) {
	h := &flakyHandler{failures: 10}
	attempts, err := handleWithRetry(context.Background(), h, nil, fastRetry(2), make(chan struct{}))
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleWithRetryStops(t *testing.T) {
	stop := make(chan struct{})
	close(stop)
	h := &flakyHandler{failures: 10}
	cfg := &ConsumerConfig{RetryMax: 5, BackoffMin: time.Hour, BackoffMax: time.Hour}
	attempts, err := handleWithRetry(context.Background(), h, nil, cfg, stop)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestEncode(t *testing.T) {
	b, err := encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, err = encode("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	_, err = encode(make(chan int))
	assert.Error(t, err)
}

func TestConstructorsRequireBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewConsumer(nil)
	assert.Error(t, err)
}
