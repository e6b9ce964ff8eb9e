package models

// Stage is the case's position in the fixed investigative pipeline.
type Stage string

const (
	StageIntake        Stage = "intake"
	StageInvestigation Stage = "investigation"
	StageSummoning     Stage = "summoning"
	StageResolution    Stage = "resolution"
	StageClosure       Stage = "closure"
)

// stageOrder is the only legal progression; transitions move one step at a
// time, never backwards (except through Reopen, which has its own audit kind).
var stageOrder = []Stage{
	StageIntake,
	StageInvestigation,
	StageSummoning,
	StageResolution,
	StageClosure,
}

// Valid reports whether s is a recognized stage token.
func (s Stage) Valid() bool {
	for _, st := range stageOrder {
		if s == st {
			return true
		}
	}
	return false
}

// Next returns the immediate successor stage, or "" if s is the final stage
// or unrecognized.
func (s Stage) Next() Stage {
	for i, st := range stageOrder {
		if s == st && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return ""
}

// Status is the case's disposition, independent of stage.
type Status string

const (
	StatusInProgress      Status = "in_progress"
	StatusAwaitingSummons Status = "awaiting_summons"
	StatusResolved        Status = "resolved"
	StatusDismissed       Status = "dismissed"
	StatusTransferred     Status = "transferred"
)

var validStatuses = map[Status]bool{
	StatusInProgress:      true,
	StatusAwaitingSummons: true,
	StatusResolved:        true,
	StatusDismissed:       true,
	StatusTransferred:     true,
}

// Valid reports whether st is a recognized status token.
func (st Status) Valid() bool {
	return validStatuses[st]
}

// Terminal reports whether st ends the case's active lifecycle. Terminal
// cases accept no further status changes and only the single stage move
// into closure.
func (st Status) Terminal() bool {
	return st == StatusResolved || st == StatusDismissed
}

// Priority is the complainant-declared urgency of a case.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a recognized priority token.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityUrgent
}

// ActionKind identifies the type of transition recorded by an audit entry.
type ActionKind string

const (
	ActionStageChange     ActionKind = "stage_change"
	ActionStatusChange    ActionKind = "status_change"
	ActionAgentAssignment ActionKind = "agent_assignment"
	ActionSummonsAdded    ActionKind = "summons_added"
	ActionCaseReopened    ActionKind = "case_reopened"
)

// AlertKind identifies the policy condition that raised an alert.
type AlertKind string

const (
	AlertSLABreached       AlertKind = "sla_breached"
	AlertNoActivity        AlertKind = "no_activity"
	AlertExpertiseRequired AlertKind = "expertise_required"
	AlertSummonsRequired   AlertKind = "summons_required"
)

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)
