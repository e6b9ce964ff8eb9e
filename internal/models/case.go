package models

import "time"

// Case represents a tracked citizen complaint moving through the
// investigative pipeline.
type Case struct {
	ID             string `json:"id"`
	Number         string `json:"number"`
	Category       string `json:"category"`
	Description    string `json:"description,omitempty"`
	CommissariatID string `json:"commissariat_id"`

	Complainant      Party     `json:"complainant"`
	IncidentLocation string    `json:"incident_location"`
	IncidentDate     time.Time `json:"incident_date,omitempty"`

	Priority Priority `json:"priority"`
	Stage    Stage    `json:"stage"`
	Status   Status   `json:"status"`

	SLADue         time.Time `json:"sla_due"`
	Breached       bool      `json:"breached"` // derived, recomputed on read
	StageEnteredAt time.Time `json:"stage_entered_at"`

	DecisionFinale string  `json:"decision_finale,omitempty"`
	Observations   string  `json:"observations,omitempty"`
	AssignedAgent  *string `json:"assigned_agent,omitempty"`
	SummonsCount   int     `json:"summons_count"`

	Suspects  []Party `json:"suspects,omitempty"`
	Witnesses []Party `json:"witnesses,omitempty"`

	// Version guards read-modify-write cycles; every successful mutation
	// increments it.
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Party is an identity block for a complainant, suspect, or witness.
// Informational only; carries no state.
type Party struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
}

// Open reports whether the case still participates in alert sweeps.
func (c *Case) Open() bool {
	return !c.Status.Terminal()
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing store-internal state.
func (c *Case) Clone() *Case {
	cp := *c
	if c.AssignedAgent != nil {
		agent := *c.AssignedAgent
		cp.AssignedAgent = &agent
	}
	if c.UpdatedAt != nil {
		ts := *c.UpdatedAt
		cp.UpdatedAt = &ts
	}
	cp.Suspects = append([]Party(nil), c.Suspects...)
	cp.Witnesses = append([]Party(nil), c.Witnesses...)
	return &cp
}

// AuditEntry is one immutable record of a single case transition.
type AuditEntry struct {
	ID        string     `json:"id"`
	CaseID    string     `json:"case_id"`
	Action    ActionKind `json:"action"`
	Prior     string     `json:"prior,omitempty"`
	New       string     `json:"new"`
	Note      string     `json:"note,omitempty"`
	Actor     string     `json:"actor"`
	Timestamp time.Time  `json:"timestamp"`
	Signature string     `json:"signature,omitempty"`
}

// Alert is a derived, self-resolving signal that a case violates a policy
// condition. Alerts are recomputed wholesale on every sweep and never
// mutated individually.
type Alert struct {
	CaseID         string        `json:"case_id"`
	CaseNumber     string        `json:"case_number"`
	CommissariatID string        `json:"commissariat_id"`
	Kind           AlertKind     `json:"kind"`
	Severity       AlertSeverity `json:"severity"`
	Message        string        `json:"message"`
	DaysOverdue    int           `json:"days_overdue,omitempty"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// AgentScoreSnapshot is a fully derived per-agent performance view.
type AgentScoreSnapshot struct {
	AgentID           string        `json:"agent_id"`
	CasesHandled      int           `json:"cases_handled"`
	CasesResolved     int           `json:"cases_resolved"`
	ResolutionRate    float64       `json:"resolution_rate"`
	AvgResolutionTime time.Duration `json:"avg_resolution_time"`
	Score             float64       `json:"score"`
}
