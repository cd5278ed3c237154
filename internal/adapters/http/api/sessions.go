package api

import (
	"encoding/json"
	"net/http"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
)

// sessionRequest carries the challenge context and current slot list
// from the console when an edit session opens.
type sessionRequest struct {
	Challenge challengePayload `json:"challenge"`
	Slots     []slotPayload    `json:"reviewers"`
}

type challengePayload struct {
	TrackID   string            `json:"trackId"`
	TypeID    string            `json:"typeId"`
	TypeName  string            `json:"typeName"`
	Phases    []phasePayload    `json:"phases"`
	PrizeSets []prizeSetPayload `json:"prizeSets"`
}

type phasePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type prizeSetPayload struct {
	Type   string         `json:"type"`
	Prizes []prizePayload `json:"prizes"`
}

type prizePayload struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")
	if challengeID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	challenge := model.Challenge{
		ID:       challengeID,
		TrackID:  req.Challenge.TrackID,
		TypeID:   req.Challenge.TypeID,
		TypeName: req.Challenge.TypeName,
	}
	for _, p := range req.Challenge.Phases {
		challenge.Phases = append(challenge.Phases, model.Phase{ID: p.ID, Name: p.Name})
	}
	for _, ps := range req.Challenge.PrizeSets {
		set := model.PrizeSet{Type: ps.Type}
		for _, p := range ps.Prizes {
			set.Prizes = append(set.Prizes, model.Prize{Type: p.Type, Value: p.Value})
		}
		challenge.PrizeSets = append(challenge.PrizeSets, set)
	}

	slots := make([]model.ReviewerSlot, len(req.Slots))
	for i, sp := range req.Slots {
		slots[i] = sp.toModel()
	}

	s.deps.OpenSession(r.Context(), challenge, slots)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "open"})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	s.deps.CloseSession(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	s.deps.Resync(r.Context(), r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}
