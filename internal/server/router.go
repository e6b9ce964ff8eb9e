// Package server wires the HTTP routes and middleware chain.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelle-systems/caseflow/internal/handlers"
	"github.com/sentinelle-systems/caseflow/internal/middleware"
)

// NewRouter constructs the route table with request-id and CORS middleware
// applied to every route.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/cases", h.CreateCase)
	mux.HandleFunc("GET /api/v1/cases", h.ListCases)
	mux.HandleFunc("GET /api/v1/cases/{id}", h.GetCase)
	mux.HandleFunc("PATCH /api/v1/cases/{id}/stage", h.ChangeStage)
	mux.HandleFunc("PATCH /api/v1/cases/{id}/status", h.ChangeStatus)
	mux.HandleFunc("PATCH /api/v1/cases/{id}/assign", h.AssignAgent)
	mux.HandleFunc("POST /api/v1/cases/{id}/summons", h.AttachSummons)
	mux.HandleFunc("POST /api/v1/cases/{id}/reopen", h.Reopen)
	mux.HandleFunc("GET /api/v1/cases/{id}/audit", h.ListAuditEntries)

	mux.HandleFunc("GET /api/v1/alerts", h.ListAlerts)
	mux.HandleFunc("GET /api/v1/agents/top", h.TopAgents)

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-Actor-ID"},
	})

	return middleware.RequestID(cors(mux))
}
