// Package policy holds the SLA policy table and the deadline calculator.
// Everything here is a pure function of its inputs so the alert sweep can
// evaluate cases cheaply and the calculator stays trivially testable.
package policy

import (
	"time"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// Table maps (stage, priority) to the maximum dwell time before a case is
// considered overdue in that stage.
type Table map[models.Stage]map[models.Priority]time.Duration

// Policy bundles the SLA table with the alert thresholds used by the sweep.
type Policy struct {
	Durations Table

	// StagnationWindow is how long a case may go without any audit entry
	// before a no-activity alert is raised.
	StagnationWindow time.Duration

	// ExpertiseDwell is how long a case of an expertise-flagged category
	// may sit in investigation before an expertise alert is raised.
	ExpertiseDwell time.Duration

	// CriticalOverdue is the overdue amount past which an SLA breach
	// escalates from warning to critical.
	CriticalOverdue time.Duration

	// ExpertiseCategories flags case categories that require external
	// expertise during investigation.
	ExpertiseCategories map[string]bool
}

// Default returns the standard policy table.
func Default() *Policy {
	day := 24 * time.Hour
	return &Policy{
		Durations: Table{
			models.StageIntake: {
				models.PriorityUrgent: 24 * time.Hour,
				models.PriorityNormal: 48 * time.Hour,
				models.PriorityLow:    72 * time.Hour,
			},
			models.StageInvestigation: {
				models.PriorityUrgent: 5 * day,
				models.PriorityNormal: 10 * day,
				models.PriorityLow:    15 * day,
			},
			models.StageSummoning: {
				models.PriorityUrgent: 7 * day,
				models.PriorityNormal: 10 * day,
				models.PriorityLow:    15 * day,
			},
			models.StageResolution: {
				models.PriorityUrgent: 5 * day,
				models.PriorityNormal: 10 * day,
				models.PriorityLow:    15 * day,
			},
			models.StageClosure: {
				models.PriorityUrgent: 2 * day,
				models.PriorityNormal: 5 * day,
				models.PriorityLow:    7 * day,
			},
		},
		StagnationWindow: 5 * day,
		ExpertiseDwell:   10 * day,
		CriticalOverdue:  7 * day,
		ExpertiseCategories: map[string]bool{
			"cybercrime":      true,
			"fraud":           true,
			"forgery":         true,
			"homicide":        true,
			"narcotics":       true,
			"financial_crime": true,
		},
	}
}

// ComputeDue returns the SLA deadline for a case that entered stage at
// enteredAt with the given priority. Unknown combinations fall back to the
// normal-priority duration for the stage, then to 10 days.
func (p *Policy) ComputeDue(stage models.Stage, priority models.Priority, enteredAt time.Time) time.Time {
	byPriority, ok := p.Durations[stage]
	if !ok {
		return enteredAt.Add(10 * 24 * time.Hour)
	}
	d, ok := byPriority[priority]
	if !ok {
		d = byPriority[models.PriorityNormal]
	}
	if d == 0 {
		d = 10 * 24 * time.Hour
	}
	return enteredAt.Add(d)
}

// IsBreached reports whether now is strictly past due. Exact equality
// resolves to not breached.
func IsBreached(due, now time.Time) bool {
	return now.After(due)
}

// RequiresExpertise reports whether the category is flagged for external
// expertise.
func (p *Policy) RequiresExpertise(category string) bool {
	return p.ExpertiseCategories[category]
}
