package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
)

// assignRequest names the member to place at a position. An empty
// handle clears the position.
type assignRequest struct {
	Handle string `json:"handle"`
	UserID string `json:"userId"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var member *model.AssignedMember
	if strings.TrimSpace(req.Handle) != "" {
		member = &model.AssignedMember{Handle: req.Handle, UserID: req.UserID}
	}

	if err := s.deps.AssignMember(r.Context(), r.PathValue("id"), slotIndex, position, member); err != nil {
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type toggleOpenRequest struct {
	Open bool `json:"open"`
}

func (s *Server) handleToggleOpen(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req toggleOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	report, err := s.deps.ToggleOpenOpportunity(r.Context(), r.PathValue("id"), index, req.Open)
	if err != nil {
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}
