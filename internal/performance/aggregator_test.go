package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelle-systems/caseflow/internal/models"
	"github.com/sentinelle-systems/caseflow/internal/repository"
)

var (
	periodFrom = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
)

type caseSpec struct {
	agent    string
	resolved bool
	delay    time.Duration // assignment to resolution
}

func seed(t *testing.T, store *repository.InMemoryStore, i int, spec caseSpec) {
	t.Helper()

	id := fmt.Sprintf("case-%d", i)
	assignedAt := periodFrom.Add(24 * time.Hour)

	status := models.StatusInProgress
	if spec.resolved {
		status = models.StatusResolved
	}
	agent := spec.agent
	c := &models.Case{
		ID:             id,
		Number:         fmt.Sprintf("PL-2025-%06d", i),
		Category:       "theft",
		CommissariatID: "commissariat-01",
		Priority:       models.PriorityNormal,
		Stage:          models.StageClosure,
		Status:         status,
		SLADue:         periodTo,
		StageEnteredAt: assignedAt,
		AssignedAgent:  &agent,
		Version:        1,
		CreatedAt:      assignedAt,
	}
	require.NoError(t, store.CreateCase(context.Background(), c, &models.AuditEntry{
		ID: id + "-open", CaseID: id, Action: models.ActionStageChange,
		New: string(models.StageIntake), Actor: spec.agent, Timestamp: assignedAt,
	}))

	entries := []*models.AuditEntry{{
		ID: id + "-assign", CaseID: id, Action: models.ActionAgentAssignment,
		New: spec.agent, Actor: "chief", Timestamp: assignedAt,
	}}
	if spec.resolved {
		entries = append(entries, &models.AuditEntry{
			ID: id + "-resolve", CaseID: id, Action: models.ActionStatusChange,
			Prior: string(models.StatusInProgress), New: string(models.StatusResolved),
			Actor: spec.agent, Timestamp: assignedAt.Add(spec.delay),
		})
	}
	for _, e := range entries {
		require.NoError(t, store.UpdateCase(context.Background(), c, c.Version, e))
	}
}

func TestScoreAgentComposite(t *testing.T) {
	store := repository.NewInMemoryStore()

	// 7 of 10 cases resolved, each 3 days after assignment:
	// rate = 0.7, delayScore = 1 - 3/30 = 0.9
	// score = (0.6*0.7 + 0.4*0.9) * 10 = 7.8
	for i := 0; i < 10; i++ {
		seed(t, store, i, caseSpec{
			agent:    "agent-1",
			resolved: i < 7,
			delay:    3 * 24 * time.Hour,
		})
	}

	snap, err := New(store).ScoreAgent(context.Background(), "agent-1", periodFrom, periodTo)
	require.NoError(t, err)

	assert.Equal(t, 10, snap.CasesHandled)
	assert.Equal(t, 7, snap.CasesResolved)
	assert.InDelta(t, 0.7, snap.ResolutionRate, 1e-9)
	assert.Equal(t, 3*24*time.Hour, snap.AvgResolutionTime)
	assert.InDelta(t, 7.8, snap.Score, 1e-9)
}

func TestScoreAgentNoCases(t *testing.T) {
	store := repository.NewInMemoryStore()

	snap, err := New(store).ScoreAgent(context.Background(), "agent-ghost", periodFrom, periodTo)
	require.NoError(t, err)

	assert.Zero(t, snap.CasesHandled)
	assert.Zero(t, snap.Score)
}

func TestScoreHigherRateWins(t *testing.T) {
	store := repository.NewInMemoryStore()

	// Same delays, different resolution rates.
	n := 0
	for i := 0; i < 10; i++ {
		seed(t, store, n, caseSpec{agent: "agent-strong", resolved: i < 9, delay: 5 * 24 * time.Hour})
		n++
	}
	for i := 0; i < 10; i++ {
		seed(t, store, n, caseSpec{agent: "agent-weak", resolved: i < 5, delay: 5 * 24 * time.Hour})
		n++
	}

	agg := New(store)
	strong, err := agg.ScoreAgent(context.Background(), "agent-strong", periodFrom, periodTo)
	require.NoError(t, err)
	weak, err := agg.ScoreAgent(context.Background(), "agent-weak", periodFrom, periodTo)
	require.NoError(t, err)

	assert.Greater(t, strong.Score, weak.Score)
}

func TestScoreSlowerResolutionScoresLower(t *testing.T) {
	store := repository.NewInMemoryStore()

	n := 0
	for i := 0; i < 4; i++ {
		seed(t, store, n, caseSpec{agent: "agent-fast", resolved: true, delay: 2 * 24 * time.Hour})
		n++
	}
	for i := 0; i < 4; i++ {
		seed(t, store, n, caseSpec{agent: "agent-slow", resolved: true, delay: 25 * 24 * time.Hour})
		n++
	}

	agg := New(store)
	fast, err := agg.ScoreAgent(context.Background(), "agent-fast", periodFrom, periodTo)
	require.NoError(t, err)
	slow, err := agg.ScoreAgent(context.Background(), "agent-slow", periodFrom, periodTo)
	require.NoError(t, err)

	assert.Greater(t, fast.Score, slow.Score)
	assert.GreaterOrEqual(t, slow.Score, 0.0)
	assert.LessOrEqual(t, fast.Score, 10.0)
}

func TestTopAgentsRanksAndLimits(t *testing.T) {
	store := repository.NewInMemoryStore()

	n := 0
	for i := 0; i < 4; i++ {
		seed(t, store, n, caseSpec{agent: "agent-a", resolved: true, delay: 24 * time.Hour})
		n++
	}
	for i := 0; i < 4; i++ {
		seed(t, store, n, caseSpec{agent: "agent-b", resolved: i < 2, delay: 24 * time.Hour})
		n++
	}
	for i := 0; i < 4; i++ {
		seed(t, store, n, caseSpec{agent: "agent-c", resolved: false})
		n++
	}

	agg := New(store)
	top, err := agg.TopAgents(context.Background(), "commissariat-01", periodFrom, periodTo, 2)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, "agent-a", top[0].AgentID)
	assert.Equal(t, "agent-b", top[1].AgentID)

	// Unknown commissariat yields an empty ranking.
	top, err = agg.TopAgents(context.Background(), "commissariat-99", periodFrom, periodTo, 2)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestResolutionOutsidePeriodNotCounted(t *testing.T) {
	store := repository.NewInMemoryStore()

	// Resolved 45 days after assignment, which lands past the period end:
	// the case counts as handled but not resolved in this window.
	seed(t, store, 0, caseSpec{agent: "agent-1", resolved: true, delay: 45 * 24 * time.Hour})

	snap, err := New(store).ScoreAgent(context.Background(), "agent-1", periodFrom, periodTo)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.CasesHandled)
	assert.Zero(t, snap.CasesResolved)
}
