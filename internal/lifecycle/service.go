// Package lifecycle implements the case state machine. All case mutations
// go through this service; each one is validated, applied together with its
// audit entry as a single atomic unit, and conditioned on the case version
// read at the start of the operation.
package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelle-systems/caseflow/internal/audit"
	"github.com/sentinelle-systems/caseflow/internal/models"
	"github.com/sentinelle-systems/caseflow/internal/policy"
	"github.com/sentinelle-systems/caseflow/internal/repository"
)

// EventPublisher receives a notification after each successful mutation.
// Implementations must not block; publish failures never fail the mutation.
type EventPublisher interface {
	CaseEvent(ctx context.Context, c *models.Case, entry *models.AuditEntry)
}

// Service is the lifecycle state machine.
type Service struct {
	store  repository.CaseStore
	policy *policy.Policy
	signer *audit.Signer
	events EventPublisher
	now    func() time.Time
}

// NewService creates the state machine. events may be nil; now defaults to
// time.Now when nil (tests inject a fixed clock).
func NewService(store repository.CaseStore, pol *policy.Policy, signer *audit.Signer, events EventPublisher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		policy: pol,
		signer: signer,
		events: events,
		now:    now,
	}
}

// CreateCase validates intake data and opens a new case at stage intake,
// status in-progress, with an SLA deadline from the intake policy.
func (s *Service) CreateCase(ctx context.Context, req *models.CreateCaseRequest, actor string) (*models.Case, error) {
	if req.Complainant.Name == "" {
		return nil, validationErr("complainant.name", "required")
	}
	if req.IncidentLocation == "" {
		return nil, validationErr("incident_location", "required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return nil, validationErr("priority", fmt.Sprintf("unknown value %q", req.Priority))
	}

	seq, err := s.store.NextCaseNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id, _ := uuid.NewV7()
	c := &models.Case{
		ID:               id.String(),
		Number:           fmt.Sprintf("PL-%d-%06d", now.Year(), seq),
		Category:         req.Category,
		Description:      req.Description,
		CommissariatID:   req.CommissariatID,
		Complainant:      req.Complainant,
		IncidentLocation: req.IncidentLocation,
		IncidentDate:     req.IncidentDate,
		Priority:         priority,
		Stage:            models.StageIntake,
		Status:           models.StatusInProgress,
		SLADue:           s.policy.ComputeDue(models.StageIntake, priority, now),
		StageEnteredAt:   now,
		Observations:     req.Observations,
		Suspects:         req.Suspects,
		Witnesses:        req.Witnesses,
		Version:          1,
		CreatedAt:        now,
	}

	entry := s.newEntry(c.ID, models.ActionStageChange, "", string(models.StageIntake), "case opened", actor)
	if err := s.store.CreateCase(ctx, c, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// ChangeStage moves a case to the immediate successor stage. Terminal cases
// accept only the single move from resolution into closure.
func (s *Service) ChangeStage(ctx context.Context, caseID string, newStage models.Stage, note, actor string) (*models.Case, error) {
	if !newStage.Valid() {
		return nil, validationErr("stage", fmt.Sprintf("unknown value %q", newStage))
	}

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.Status.Terminal() && newStage != models.StageClosure {
		return nil, fmt.Errorf("%w: case %s is %s; only closure is permitted", ErrInvalidTransition, c.Number, c.Status)
	}
	if newStage != c.Stage.Next() {
		return nil, fmt.Errorf("%w: %s does not follow %s", ErrInvalidTransition, newStage, c.Stage)
	}

	now := s.now().UTC()
	prior := c.Stage
	c.Stage = newStage
	c.StageEnteredAt = now
	c.SLADue = s.policy.ComputeDue(newStage, c.Priority, now)
	c.UpdatedAt = &now

	entry := s.newEntry(c.ID, models.ActionStageChange, string(prior), string(newStage), note, actor)
	if err := s.store.UpdateCase(ctx, c, c.Version, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// ChangeStatus changes the case's disposition. Terminal statuses require a
// final decision text; cases already terminal reject further status changes
// (Reopen is the only way back).
func (s *Service) ChangeStatus(ctx context.Context, caseID string, newStatus models.Status, decision, actor string) (*models.Case, error) {
	if !newStatus.Valid() {
		return nil, validationErr("status", fmt.Sprintf("unknown value %q", newStatus))
	}

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: case %s already %s", ErrInvalidTransition, c.Number, c.Status)
	}
	if newStatus.Terminal() && decision == "" {
		return nil, validationErr("decision", "required for terminal status")
	}

	now := s.now().UTC()
	prior := c.Status
	c.Status = newStatus
	if newStatus.Terminal() {
		c.DecisionFinale = decision
	}
	c.UpdatedAt = &now

	entry := s.newEntry(c.ID, models.ActionStatusChange, string(prior), string(newStatus), decision, actor)
	if err := s.store.UpdateCase(ctx, c, c.Version, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// AssignAgent sets the handling agent. Assigning the already-current agent
// is a no-op producing no audit entry; reassignment supersedes.
func (s *Service) AssignAgent(ctx context.Context, caseID, agentID, actor string) (*models.Case, error) {
	if agentID == "" {
		return nil, validationErr("agent_id", "required")
	}

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.AssignedAgent != nil && *c.AssignedAgent == agentID {
		return s.withBreached(c), nil
	}

	now := s.now().UTC()
	prior := ""
	if c.AssignedAgent != nil {
		prior = *c.AssignedAgent
	}
	c.AssignedAgent = &agentID
	c.UpdatedAt = &now

	entry := s.newEntry(c.ID, models.ActionAgentAssignment, prior, agentID, "", actor)
	if err := s.store.UpdateCase(ctx, c, c.Version, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// AttachSummons records a summons issued on the case and increments the
// summons counter.
func (s *Service) AttachSummons(ctx context.Context, caseID, summonsRef, actor string) (*models.Case, error) {
	if summonsRef == "" {
		return nil, validationErr("summons_ref", "required")
	}

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: case %s is %s", ErrInvalidTransition, c.Number, c.Status)
	}

	now := s.now().UTC()
	prior := c.SummonsCount
	c.SummonsCount++
	c.UpdatedAt = &now

	entry := s.newEntry(c.ID, models.ActionSummonsAdded, strconv.Itoa(prior), strconv.Itoa(c.SummonsCount), summonsRef, actor)
	if err := s.store.UpdateCase(ctx, c, c.Version, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// Reopen returns a terminal case to active investigation. The move is
// logged under its own audit kind and clears the final decision so the
// decision-iff-terminal invariant holds.
func (s *Service) Reopen(ctx context.Context, caseID, note, actor string) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.Terminal() {
		return nil, fmt.Errorf("%w: case %s is not terminal", ErrInvalidTransition, c.Number)
	}

	now := s.now().UTC()
	prior := c.Status
	c.Status = models.StatusInProgress
	c.Stage = models.StageInvestigation
	c.StageEnteredAt = now
	c.SLADue = s.policy.ComputeDue(models.StageInvestigation, c.Priority, now)
	c.DecisionFinale = ""
	c.UpdatedAt = &now

	entry := s.newEntry(c.ID, models.ActionCaseReopened, string(prior), string(models.StatusInProgress), note, actor)
	if err := s.store.UpdateCase(ctx, c, c.Version, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, c, entry)
	return s.withBreached(c), nil
}

// GetCase returns the current case with a freshly computed breached flag.
func (s *Service) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.withBreached(c), nil
}

// ListCases returns a paginated case listing.
func (s *Service) ListCases(ctx context.Context, req *models.ListCasesRequest) (*models.ListCasesResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 50
	}

	cases, total, err := s.store.ListCases(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, c := range cases {
		s.withBreached(c)
	}

	totalPages := (total + req.Limit - 1) / req.Limit
	return &models.ListCasesResponse{
		Cases: cases,
		Pagination: models.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// ListAuditEntries returns the ordered audit trail for a case.
func (s *Service) ListAuditEntries(ctx context.Context, caseID string) ([]*models.AuditEntry, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListAuditEntries(ctx, caseID)
}

func (s *Service) newEntry(caseID string, action models.ActionKind, prior, newValue, note, actor string) *models.AuditEntry {
	id, _ := uuid.NewV7()
	e := &models.AuditEntry{
		ID:        id.String(),
		CaseID:    caseID,
		Action:    action,
		Prior:     prior,
		New:       newValue,
		Note:      note,
		Actor:     actor,
		Timestamp: s.now().UTC(),
	}
	if s.signer != nil {
		e.Signature = s.signer.Sign(e)
	}
	return e
}

// withBreached recomputes the derived breached flag; it is never persisted
// as a frozen truth.
func (s *Service) withBreached(c *models.Case) *models.Case {
	c.Breached = policy.IsBreached(c.SLADue, s.now())
	return c
}

func (s *Service) publish(ctx context.Context, c *models.Case, entry *models.AuditEntry) {
	if s.events != nil {
		s.events.CaseEvent(ctx, c, entry)
	}
}
