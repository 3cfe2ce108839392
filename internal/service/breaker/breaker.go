package breaker

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker guards an upstream dependency. It opens after a run of consecutive
// failures or when the failure ratio over a window gets too high.
type Breaker struct {
	cb *cb.CircuitBreaker
}

type Config struct {
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	OnStateChange       func(name, from, to string)
}

func New(name string, cfg Config) *Breaker {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 3
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 20
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}

	st := cb.Settings{Name: name, Interval: cfg.Interval, Timeout: cfg.Timeout}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
			return true
		}
		if counts.Requests < cfg.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.FailureRatio
	}
	if cfg.OnStateChange != nil {
		st.OnStateChange = func(n string, from, to cb.State) { cfg.OnStateChange(n, from.String(), to.String()) }
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

func (b *Breaker) Execute(fn func() (any, error)) (any, error) { return b.cb.Execute(fn) }

// State is "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }

// Do runs fn through b and keeps the result typed.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}
	v, err := b.Execute(func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}
