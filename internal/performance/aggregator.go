// Package performance computes derived per-agent resolution statistics.
// It is strictly a read-side projection over the case store and audit
// trail; it never writes.
package performance

import (
	"context"
	"sort"
	"time"

	"github.com/sentinelle-systems/caseflow/internal/models"
	"github.com/sentinelle-systems/caseflow/internal/repository"
)

// Score weights and normalization. The composite blends resolution rate
// with inverse-normalized resolution delay, clamped to [0,10].
const (
	rateWeight  = 0.6
	delayWeight = 0.4
	// delayCeiling is the delay at which the delay component bottoms out.
	delayCeiling = 30 * 24 * time.Hour
)

// Aggregator derives agent performance snapshots.
type Aggregator struct {
	store repository.CaseStore
}

func New(store repository.CaseStore) *Aggregator {
	return &Aggregator{store: store}
}

// ScoreAgent computes the snapshot for one agent over [from, to]. A case
// counts as handled when the agent is its assignee and at least one audit
// entry fell inside the period; it counts as resolved when a status change
// to resolved landed inside the period.
func (a *Aggregator) ScoreAgent(ctx context.Context, agentID string, from, to time.Time) (*models.AgentScoreSnapshot, error) {
	cases, _, err := a.store.ListCases(ctx, &models.ListCasesRequest{
		Page:     1,
		Limit:    10000,
		Assignee: agentID,
	})
	if err != nil {
		return nil, err
	}
	return a.scoreFromCases(ctx, agentID, cases, from, to)
}

// TopAgents ranks agents of a commissariat by composite score.
func (a *Aggregator) TopAgents(ctx context.Context, commissariatID string, from, to time.Time, limit int) ([]*models.AgentScoreSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	cases, _, err := a.store.ListCases(ctx, &models.ListCasesRequest{
		Page:           1,
		Limit:          10000,
		CommissariatID: commissariatID,
	})
	if err != nil {
		return nil, err
	}

	byAgent := make(map[string][]*models.Case)
	for _, c := range cases {
		if c.AssignedAgent == nil {
			continue
		}
		byAgent[*c.AssignedAgent] = append(byAgent[*c.AssignedAgent], c)
	}

	snapshots := make([]*models.AgentScoreSnapshot, 0, len(byAgent))
	for agentID, agentCases := range byAgent {
		snap, err := a.scoreFromCases(ctx, agentID, agentCases, from, to)
		if err != nil {
			return nil, err
		}
		if snap.CasesHandled == 0 {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Score != snapshots[j].Score {
			return snapshots[i].Score > snapshots[j].Score
		}
		return snapshots[i].AgentID < snapshots[j].AgentID
	})
	if len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

func (a *Aggregator) scoreFromCases(ctx context.Context, agentID string, cases []*models.Case, from, to time.Time) (*models.AgentScoreSnapshot, error) {
	snap := &models.AgentScoreSnapshot{AgentID: agentID}

	var totalDelay time.Duration
	var delayCount int

	for _, c := range cases {
		entries, err := a.store.ListAuditEntries(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		var activeInPeriod bool
		var assignedAt, resolvedAt time.Time
		var resolvedInPeriod bool

		for _, e := range entries {
			if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
				activeInPeriod = true
			}
			switch e.Action {
			case models.ActionAgentAssignment:
				if e.New == agentID && assignedAt.IsZero() {
					assignedAt = e.Timestamp
				}
			case models.ActionStatusChange:
				if e.New == string(models.StatusResolved) {
					resolvedAt = e.Timestamp
					if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
						resolvedInPeriod = true
					}
				}
			}
		}

		if !activeInPeriod {
			continue
		}
		snap.CasesHandled++

		if resolvedInPeriod && c.Status == models.StatusResolved {
			snap.CasesResolved++
			if !assignedAt.IsZero() && resolvedAt.After(assignedAt) {
				totalDelay += resolvedAt.Sub(assignedAt)
				delayCount++
			}
		}
	}

	if snap.CasesHandled > 0 {
		snap.ResolutionRate = float64(snap.CasesResolved) / float64(snap.CasesHandled)
	}
	if delayCount > 0 {
		snap.AvgResolutionTime = totalDelay / time.Duration(delayCount)
	}
	snap.Score = composite(snap.ResolutionRate, snap.AvgResolutionTime, snap.CasesHandled)
	return snap, nil
}

func composite(rate float64, avgDelay time.Duration, handled int) float64 {
	if handled == 0 {
		return 0
	}

	delayScore := 1.0
	if avgDelay > 0 {
		delayScore = 1 - float64(avgDelay)/float64(delayCeiling)
		if delayScore < 0 {
			delayScore = 0
		}
	}

	score := (rateWeight*rate + delayWeight*delayScore) * 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}
