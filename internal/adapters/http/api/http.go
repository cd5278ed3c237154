// Package api declares HTTP contracts and route registration for the
// reviewer administration surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/repository"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/distribute"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/engine"
)

// Dependencies bundles everything the handlers need from the service
// layer. Keeping it an interface decouples the HTTP surface from the
// app package.
type Dependencies interface {
	OpenSession(ctx context.Context, challenge model.Challenge, slots []model.ReviewerSlot)
	CloseSession(challengeID string)
	Resync(ctx context.Context, challengeID string)

	AddSlot(ctx context.Context, challengeID string) (int, error)
	RemoveSlot(ctx context.Context, challengeID string, index int) error
	UpdateSlot(ctx context.Context, challengeID string, index int, field engine.SlotField, value interface{}) (engine.BatchReport, error)
	AssignMember(ctx context.Context, challengeID string, slotIndex, position int, member *model.AssignedMember) error
	ToggleOpenOpportunity(ctx context.Context, challengeID string, index int, makingOpen bool) (engine.BatchReport, error)

	Snapshot(ctx context.Context, challengeID string) ([]model.ReviewerSlot, distribute.Table, error)
	EstimateCost(ctx context.Context, challengeID string) (float64, error)
	MissingReviewPhases(ctx context.Context, challengeID string) ([]string, error)
}

// StatsProvider exposes service statistics for the /stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the reviewer API.
type Server struct {
	deps  Dependencies
	stats StatsProvider
}

// NewServer creates the API server.
func NewServer(deps Dependencies, stats StatsProvider) *Server {
	return &Server{deps: deps, stats: stats}
}

// Register attaches all routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))

	mux.HandleFunc("PUT /challenges/{id}/session", MetricsMiddleware(s.handleOpenSession, "session"))
	mux.HandleFunc("DELETE /challenges/{id}/session", MetricsMiddleware(s.handleCloseSession, "session"))
	mux.HandleFunc("POST /challenges/{id}/resync", MetricsMiddleware(s.handleResync, "resync"))

	mux.HandleFunc("GET /challenges/{id}/reviewers", MetricsMiddleware(s.handleSnapshot, "reviewers"))
	mux.HandleFunc("POST /challenges/{id}/reviewers", MetricsMiddleware(s.handleAddSlot, "reviewers"))
	mux.HandleFunc("PATCH /challenges/{id}/reviewers/{index}", MetricsMiddleware(s.handleUpdateSlot, "reviewers"))
	mux.HandleFunc("DELETE /challenges/{id}/reviewers/{index}", MetricsMiddleware(s.handleRemoveSlot, "reviewers"))
	mux.HandleFunc("PUT /challenges/{id}/reviewers/{index}/assignments/{position}", MetricsMiddleware(s.handleAssign, "assignments"))
	mux.HandleFunc("POST /challenges/{id}/reviewers/{index}/open", MetricsMiddleware(s.handleToggleOpen, "open"))

	mux.HandleFunc("GET /challenges/{id}/review-cost", MetricsMiddleware(s.handleCost, "review-cost"))
	mux.HandleFunc("GET /challenges/{id}/missing-phases", MetricsMiddleware(s.handleMissingPhases, "missing-phases"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFieldError reports a validation failure next to a slot field.
func writeFieldError(w http.ResponseWriter, field string, err error) {
	msg := http.StatusText(http.StatusBadRequest)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "validation", Message: msg, Field: field})
}

// translateError maps service errors onto HTTP statuses. Reconciliation
// failures never reach here; the engine reports them out of band.
func translateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSlotIndex):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, engine.ErrInvalidValue), errors.Is(err, engine.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, engine.ErrNoChallenge):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, engine.ErrSlotOpen):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// isValidation reports whether the error belongs next to a slot field
// rather than the request as a whole.
func isValidation(err error) bool {
	return errors.Is(err, engine.ErrInvalidValue) || errors.Is(err, engine.ErrUnknownField)
}
