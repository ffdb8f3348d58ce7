package plan

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Source defines how the plan catalog is loaded.
type Source interface {
	Load(ctx context.Context) (map[uuid.UUID]Plan, error)
}

type inMemSource struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the
// given plans. Panics if no plans are provided to ensure consumers
// always have at least one valid plan. Deep copying prevents external
// modifications from affecting the source's state.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) < 1 {
		panic("at least one plan is required")
	}
	plansCopy := make(map[uuid.UUID]Plan, len(plans))
	for _, p := range plans {
		plansCopy[p.ID] = p.Clone()
	}
	return &inMemSource{plans: plansCopy}
}

// Load returns a copy of all available plans from memory.
func (s *inMemSource) Load(_ context.Context) (map[uuid.UUID]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plansCopy := make(map[uuid.UUID]Plan, len(s.plans))
	for id, p := range s.plans {
		plansCopy[id] = p.Clone()
	}
	return plansCopy, nil
}
