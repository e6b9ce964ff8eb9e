package models

import "time"

// CreateCaseRequest carries the intake fields for a new case.
type CreateCaseRequest struct {
	Category         string    `json:"category"`
	Description      string    `json:"description,omitempty"`
	CommissariatID   string    `json:"commissariat_id"`
	Complainant      Party     `json:"complainant"`
	IncidentLocation string    `json:"incident_location"`
	IncidentDate     time.Time `json:"incident_date,omitempty"`
	Priority         Priority  `json:"priority,omitempty"`
	Observations     string    `json:"observations,omitempty"`
	Suspects         []Party   `json:"suspects,omitempty"`
	Witnesses        []Party   `json:"witnesses,omitempty"`
}

// ChangeStageRequest moves a case to the next pipeline stage.
type ChangeStageRequest struct {
	Stage Stage  `json:"stage"`
	Note  string `json:"note,omitempty"`
}

// ChangeStatusRequest changes a case's disposition. Decision is required
// when the new status is terminal.
type ChangeStatusRequest struct {
	Status   Status `json:"status"`
	Decision string `json:"decision,omitempty"`
}

// AssignAgentRequest assigns or reassigns the handling agent.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// AttachSummonsRequest records a summons issued on the case.
type AttachSummonsRequest struct {
	SummonsRef string `json:"summons_ref"`
}

// ReopenRequest returns a terminal case to active investigation.
type ReopenRequest struct {
	Note string `json:"note,omitempty"`
}

// ListCasesRequest holds query parameters for listing cases.
type ListCasesRequest struct {
	Page           int
	Limit          int
	CommissariatID string
	Stage          Stage
	Status         Status
	Assignee       string
}

// ListCasesResponse is a paginated case listing.
type ListCasesResponse struct {
	Cases      []*Case    `json:"cases"`
	Pagination Pagination `json:"pagination"`
}

// Pagination is the listing metadata block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
