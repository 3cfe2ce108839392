package analytics

import (
	"math/rand"
	"sync"
	"time"

	domsvc "Karion/internal/domain/service"
)

// lockedRand is a math/rand source safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a seeded RandomSource. A zero seed seeds from the clock.
func NewRandomSource(seed int64) domsvc.RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Uniform draws from [lo,hi).
func Uniform(r domsvc.RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// IntBetween draws an integer from [lo,hi] inclusive.
func IntBetween(r domsvc.RandomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

var _ domsvc.RandomSource = (*lockedRand)(nil)
