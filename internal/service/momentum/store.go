package momentum

import (
	"sync"

	domrepo "Karion/internal/domain/repository"
)

// Store is a process-local map of the last composite score per symbol.
// Scores are lost on restart.
type Store struct {
	mu     sync.RWMutex
	scores map[string]float64
}

func NewStore() *Store {
	return &Store{scores: make(map[string]float64)}
}

func (s *Store) Previous(symbol string) (float64, bool) {
	s.mu.RLock()
	v, ok := s.scores[symbol]
	s.mu.RUnlock()
	return v, ok
}

func (s *Store) Store(symbol string, score float64) {
	s.mu.Lock()
	s.scores[symbol] = score
	s.mu.Unlock()
}

// Snapshot copies the current scores.
func (s *Store) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

var _ domrepo.MomentumStore = (*Store)(nil)
