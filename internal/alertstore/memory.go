package alertstore

import (
	"context"
	"sort"
	"sync"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// InMemoryStore keeps the alert set in process memory. Used in tests and
// when Redis is disabled.
type InMemoryStore struct {
	mu sync.RWMutex
	// commissariat id -> case id -> active alerts
	byOrg map[string]map[string][]models.Alert
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byOrg: make(map[string]map[string][]models.Alert)}
}

func (s *InMemoryStore) ReplaceForCase(_ context.Context, caseID, commissariatID string, alerts []models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.byOrg[commissariatID]
	if !ok {
		if len(alerts) == 0 {
			return nil
		}
		org = make(map[string][]models.Alert)
		s.byOrg[commissariatID] = org
	}

	if len(alerts) == 0 {
		delete(org, caseID)
		return nil
	}
	org[caseID] = append([]models.Alert(nil), alerts...)
	return nil
}

func (s *InMemoryStore) ListByCommissariat(_ context.Context, commissariatID string) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Alert{}
	for _, alerts := range s.byOrg[commissariatID] {
		out = append(out, alerts...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CaseNumber != out[j].CaseNumber {
			return out[i].CaseNumber < out[j].CaseNumber
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
