package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

func seedCase(t *testing.T, store *InMemoryStore, id string) *models.Case {
	t.Helper()

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	c := &models.Case{
		ID:             id,
		Number:         "PL-2025-000001",
		Category:       "theft",
		CommissariatID: "commissariat-01",
		Complainant:    models.Party{Name: "Awa Diop"},
		Priority:       models.PriorityNormal,
		Stage:          models.StageIntake,
		Status:         models.StatusInProgress,
		SLADue:         now.Add(48 * time.Hour),
		StageEnteredAt: now,
		Version:        1,
		CreatedAt:      now,
	}
	entry := &models.AuditEntry{
		ID:        id + "-e1",
		CaseID:    id,
		Action:    models.ActionStageChange,
		New:       string(models.StageIntake),
		Actor:     "officer-1",
		Timestamp: now,
	}
	require.NoError(t, store.CreateCase(context.Background(), c, entry))
	return c
}

func TestUpdateCaseVersionConflict(t *testing.T) {
	store := NewInMemoryStore()
	c := seedCase(t, store, "c1")

	// Two writers both read version 1 and race their updates; exactly one
	// must win and the loser must see a conflict.
	first := c.Clone()
	second := c.Clone()

	first.Status = models.StatusResolved
	err := store.UpdateCase(context.Background(), first, 1, &models.AuditEntry{
		ID: "e2", CaseID: c.ID, Action: models.ActionStatusChange,
		New: string(models.StatusResolved), Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Version)

	second.Status = models.StatusDismissed
	err = store.UpdateCase(context.Background(), second, 1, &models.AuditEntry{
		ID: "e3", CaseID: c.ID, Action: models.ActionStatusChange,
		New: string(models.StatusDismissed), Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The losing write leaves neither state nor audit trace.
	got, err := store.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)

	entries, err := store.ListAuditEntries(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUpdateCaseConcurrentWriters(t *testing.T) {
	store := NewInMemoryStore()
	c := seedCase(t, store, "c1")

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := c.Clone()
			snap.Observations = "racing"
			results <- store.UpdateCase(context.Background(), snap, 1, &models.AuditEntry{
				ID: "race", CaseID: c.ID, Action: models.ActionStatusChange,
				New: "x", Timestamp: time.Now(),
			})
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, ErrVersionConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)
}

func TestUpdateCaseNotFound(t *testing.T) {
	store := NewInMemoryStore()

	err := store.UpdateCase(context.Background(), &models.Case{ID: "ghost"}, 1, nil)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestGetCaseReturnsSnapshot(t *testing.T) {
	store := NewInMemoryStore()
	seedCase(t, store, "c1")

	a, err := store.GetCase(context.Background(), "c1")
	require.NoError(t, err)
	a.Status = models.StatusDismissed

	b, err := store.GetCase(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, b.Status)
}

func TestListOpenCasesExcludesTerminal(t *testing.T) {
	store := NewInMemoryStore()
	c1 := seedCase(t, store, "c1")
	seedCase(t, store, "c2")

	resolved := c1.Clone()
	resolved.Status = models.StatusResolved
	require.NoError(t, store.UpdateCase(context.Background(), resolved, 1, nil))

	open, err := store.ListOpenCases(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "c2", open[0].ID)
}

func TestLastActivity(t *testing.T) {
	store := NewInMemoryStore()
	c := seedCase(t, store, "c1")

	last, err := store.LastActivity(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, last)

	later := c.CreatedAt.Add(72 * time.Hour)
	updated := c.Clone()
	require.NoError(t, store.UpdateCase(context.Background(), updated, 1, &models.AuditEntry{
		ID: "e2", CaseID: c.ID, Action: models.ActionSummonsAdded,
		New: "1", Timestamp: later,
	}))

	last, err = store.LastActivity(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, later, last)

	// Unknown case has no activity.
	last, err = store.LastActivity(context.Background(), "ghost")
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestNextCaseNumber(t *testing.T) {
	store := NewInMemoryStore()

	n1, err := store.NextCaseNumber(context.Background())
	require.NoError(t, err)
	n2, err := store.NextCaseNumber(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
}
