package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// InMemoryStore is a CaseStore backed by maps. Used in tests and for
// local development without PostgreSQL.
type InMemoryStore struct {
	mu      sync.RWMutex
	cases   map[string]*models.Case
	entries map[string][]*models.AuditEntry
	seq     int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cases:   make(map[string]*models.Case),
		entries: make(map[string][]*models.AuditEntry),
	}
}

func (s *InMemoryStore) CreateCase(_ context.Context, c *models.Case, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases[c.ID] = c.Clone()
	s.entries[c.ID] = append(s.entries[c.ID], entry)
	return nil
}

func (s *InMemoryStore) GetCase(_ context.Context, id string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) ListCases(_ context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Case, 0)
	for _, c := range s.cases {
		if req.CommissariatID != "" && c.CommissariatID != req.CommissariatID {
			continue
		}
		if req.Stage != "" && c.Stage != req.Stage {
			continue
		}
		if req.Status != "" && c.Status != req.Status {
			continue
		}
		if req.Assignee != "" && (c.AssignedAgent == nil || *c.AssignedAgent != req.Assignee) {
			continue
		}
		matched = append(matched, c.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if req.Limit > 0 {
		start := (req.Page - 1) * req.Limit
		if start > total {
			start = total
		}
		end := start + req.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *InMemoryStore) ListOpenCases(_ context.Context) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make([]*models.Case, 0)
	for _, c := range s.cases {
		if c.Open() {
			open = append(open, c.Clone())
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open, nil
}

func (s *InMemoryStore) UpdateCase(_ context.Context, c *models.Case, expectedVersion int64, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cases[c.ID]
	if !ok {
		return ErrCaseNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	updated := c.Clone()
	updated.Version = expectedVersion + 1
	s.cases[c.ID] = updated
	if entry != nil {
		s.entries[c.ID] = append(s.entries[c.ID], entry)
	}

	// Reflect the new version back to the caller's snapshot.
	c.Version = updated.Version
	return nil
}

func (s *InMemoryStore) NextCaseNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *InMemoryStore) ListAuditEntries(_ context.Context, caseID string) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[caseID]
	out := make([]*models.AuditEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemoryStore) LastActivity(_ context.Context, caseID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, e := range s.entries[caseID] {
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	return last, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
