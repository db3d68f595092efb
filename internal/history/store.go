package history

import (
	"sync"

	"QCast/internal/domain/models"
)

// Store is a bounded in-memory buffer of ingested observations, oldest
// first. It backs the live-forecast path fed by the WebSocket and Kafka
// ingests.
type Store struct {
	mu  sync.RWMutex
	max int
	obs []models.Observation
}

func NewStore(max int) *Store {
	if max <= 0 {
		max = 10000
	}
	return &Store{max: max}
}

// Append adds observations, evicting the oldest beyond capacity.
func (s *Store) Append(obs ...models.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.obs = append(s.obs, obs...)
	if over := len(s.obs) - s.max; over > 0 {
		s.obs = append(s.obs[:0:0], s.obs[over:]...)
	}
}

// Snapshot returns a copy of the buffered observations.
func (s *Store) Snapshot() []models.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Observation(nil), s.obs...)
}

// Len returns the number of buffered observations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.obs)
}
