// Package handlers exposes the case lifecycle, alert, and performance
// APIs over HTTP/JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sentinelle-systems/caseflow/internal/alertstore"
	"github.com/sentinelle-systems/caseflow/internal/httputil"
	"github.com/sentinelle-systems/caseflow/internal/lifecycle"
	"github.com/sentinelle-systems/caseflow/internal/logging"
	"github.com/sentinelle-systems/caseflow/internal/metrics"
	"github.com/sentinelle-systems/caseflow/internal/models"
	"github.com/sentinelle-systems/caseflow/internal/performance"
	"github.com/sentinelle-systems/caseflow/internal/repository"
)

// actorHeader identifies the acting officer; auth is delegated to the
// gateway in front of this service.
const actorHeader = "X-Actor-ID"

type Handler struct {
	service *lifecycle.Service
	alerts  alertstore.Store
	perf    *performance.Aggregator
	log     *logging.Logger
}

func NewHandler(service *lifecycle.Service, alerts alertstore.Store, perf *performance.Aggregator, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{
		service: service,
		alerts:  alerts,
		perf:    perf,
		log:     log,
	}
}

// HealthCheck handles health check requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CreateCase handles POST /api/v1/cases.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	c, err := h.service.CreateCase(r.Context(), &req, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "create", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("create", "ok").Inc()
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// GetCase handles GET /api/v1/cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCase(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// ListCases handles GET /api/v1/cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := httputil.ParsePagination(r, 50, 100)
	req := &models.ListCasesRequest{
		Page:           p.Page,
		Limit:          p.Limit,
		CommissariatID: q.Get("commissariat_id"),
		Stage:          models.Stage(q.Get("stage")),
		Status:         models.Status(q.Get("status")),
		Assignee:       q.Get("assignee"),
	}

	resp, err := h.service.ListCases(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ChangeStage handles PATCH /api/v1/cases/{id}/stage.
func (h *Handler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	c, err := h.service.ChangeStage(r.Context(), r.PathValue("id"), req.Stage, req.Note, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "stage_change", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("stage_change", "ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, c)
}

// ChangeStatus handles PATCH /api/v1/cases/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	c, err := h.service.ChangeStatus(r.Context(), r.PathValue("id"), req.Status, req.Decision, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "status_change", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("status_change", "ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, c)
}

// AssignAgent handles PATCH /api/v1/cases/{id}/assign.
func (h *Handler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	var req models.AssignAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	c, err := h.service.AssignAgent(r.Context(), r.PathValue("id"), req.AgentID, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "agent_assignment", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("agent_assignment", "ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, c)
}

// AttachSummons handles POST /api/v1/cases/{id}/summons.
func (h *Handler) AttachSummons(w http.ResponseWriter, r *http.Request) {
	var req models.AttachSummonsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	c, err := h.service.AttachSummons(r.Context(), r.PathValue("id"), req.SummonsRef, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "summons_added", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("summons_added", "ok").Inc()
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// Reopen handles POST /api/v1/cases/{id}/reopen.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	var req models.ReopenRequest
	if r.Body != nil {
		// Body is optional for reopen.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	c, err := h.service.Reopen(r.Context(), r.PathValue("id"), req.Note, actor(r))
	if err != nil {
		h.writeServiceError(w, r, "case_reopened", err)
		return
	}

	metrics.CaseMutations.WithLabelValues("case_reopened", "ok").Inc()
	httputil.WriteJSON(w, http.StatusOK, c)
}

// ListAuditEntries handles GET /api/v1/cases/{id}/audit.
func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListAuditEntries(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, "audit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ListAlerts handles GET /api/v1/alerts?commissariat_id=.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	commissariatID := r.URL.Query().Get("commissariat_id")
	if commissariatID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", "commissariat_id is required")
		return
	}

	alerts, err := h.alerts.ListByCommissariat(r.Context(), commissariatID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list alerts", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list alerts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// TopAgents handles GET /api/v1/agents/top?commissariat_id=.
func (h *Handler) TopAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	commissariatID := q.Get("commissariat_id")
	if commissariatID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", "commissariat_id is required")
		return
	}

	from, to, err := parsePeriod(q.Get("from"), q.Get("to"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	limit := httputil.ParseIntParam(q.Get("limit"), 10)

	snapshots, err := h.perf.TopAgents(r.Context(), commissariatID, from, to, limit)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to rank agents", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to rank agents")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"agents": snapshots,
		"from":   from,
		"to":     to,
	})
}

// parsePeriod parses from/to as RFC 3339; default is the trailing 30 days.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	var err error
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC 3339")
		}
	}
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC 3339")
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("from must precede to")
	}
	return from, to, nil
}

// writeServiceError maps lifecycle and repository errors onto the API's
// status and code contract.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var ve *lifecycle.ValidationError

	switch {
	case errors.As(err, &ve):
		metrics.CaseMutations.WithLabelValues(action, "rejected").Inc()
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		metrics.CaseMutations.WithLabelValues(action, "rejected").Inc()
		httputil.WriteError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		metrics.CaseMutations.WithLabelValues(action, "conflict").Inc()
		httputil.WriteRetryableError(w, http.StatusConflict, "concurrent_modification",
			"case was modified concurrently; retry with fresh state")
	case errors.Is(err, repository.ErrCaseNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "case not found")
	default:
		metrics.CaseMutations.WithLabelValues(action, "error").Inc()
		h.log.ErrorContext(r.Context(), "request failed", "action", action, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func actor(r *http.Request) string {
	if a := r.Header.Get(actorHeader); a != "" {
		return a
	}
	return "system"
}
