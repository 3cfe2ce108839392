package analytics

import "time"

var fixedNow = time.Date(2024, 10, 10, 13, 10, 0, 0, time.UTC)

// constRand returns the same draw every time; Intn scales it onto [0,n).
type constRand struct{ f float64 }

func (c constRand) Float64() float64 { return c.f }

func (c constRand) Intn(n int) int {
	v := int(c.f * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// memStore is a minimal momentum store for tests.
type memStore map[string]float64

func (m memStore) Previous(symbol string) (float64, bool) {
	v, ok := m[symbol]
	return v, ok
}

func (m memStore) Store(symbol string, score float64) { m[symbol] = score }
