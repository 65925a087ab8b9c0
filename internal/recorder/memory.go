package recorder

import (
	"context"
	"fmt"
	"sync"

	"dialogue-service/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by sessions run
// without persistence configured.
type MemoryStore struct {
	mu        sync.Mutex
	decisions map[string]models.Decision
	order     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{decisions: make(map[string]models.Decision)}
}

func (s *MemoryStore) Insert(ctx context.Context, d *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[d.ID]; exists {
		return fmt.Errorf("decision %s already recorded", d.ID)
	}
	s.decisions[d.ID] = *d
	s.order = append(s.order, d.ID)
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, d *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[d.ID]; !exists {
		return fmt.Errorf("decision %s not found", d.ID)
	}
	s.decisions[d.ID] = *d
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decisions[id]
	if !ok {
		return nil, fmt.Errorf("decision %s not found", id)
	}
	return &d, nil
}

// BySession returns the decisions of one session in recording order.
func (s *MemoryStore) BySession(ctx context.Context, sessionID string) ([]models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Decision
	for _, id := range s.order {
		if d := s.decisions[id]; d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	return out, nil
}
