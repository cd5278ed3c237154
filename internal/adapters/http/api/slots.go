package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/distribute"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/engine"
)

// slotPayload mirrors the console's reviewer slot shape.
type slotPayload struct {
	Kind                   string  `json:"kind"`
	PhaseID                string  `json:"phaseId"`
	ScorecardID            string  `json:"scorecardId"`
	MemberReviewerCount    int     `json:"memberReviewerCount"`
	ReviewType             string  `json:"reviewType"`
	ShouldOpenOpportunity  bool    `json:"shouldOpenOpportunity"`
	AIWorkflowID           string  `json:"aiWorkflowId"`
	FixedAmount            float64 `json:"fixedAmount"`
	BaseCoefficient        float64 `json:"baseCoefficient"`
	IncrementalCoefficient float64 `json:"incrementalCoefficient"`
}

func (p slotPayload) toModel() model.ReviewerSlot {
	kind := model.MemberReview
	if p.Kind == string(model.AIReview) {
		kind = model.AIReview
	}
	count := p.MemberReviewerCount
	if count < 1 {
		count = 1
	}
	return model.ReviewerSlot{
		Kind:                   kind,
		PhaseID:                p.PhaseID,
		ScorecardID:            p.ScorecardID,
		MemberReviewerCount:    count,
		ReviewType:             p.ReviewType,
		ShouldOpenOpportunity:  p.ShouldOpenOpportunity,
		AIWorkflowID:           p.AIWorkflowID,
		FixedAmount:            p.FixedAmount,
		BaseCoefficient:        p.BaseCoefficient,
		IncrementalCoefficient: p.IncrementalCoefficient,
	}
}

func slotToPayload(s model.ReviewerSlot) slotPayload {
	return slotPayload{
		Kind:                   string(s.Kind),
		PhaseID:                s.PhaseID,
		ScorecardID:            s.ScorecardID,
		MemberReviewerCount:    s.MemberReviewerCount,
		ReviewType:             s.ReviewType,
		ShouldOpenOpportunity:  s.ShouldOpenOpportunity,
		AIWorkflowID:           s.AIWorkflowID,
		FixedAmount:            s.FixedAmount,
		BaseCoefficient:        s.BaseCoefficient,
		IncrementalCoefficient: s.IncrementalCoefficient,
	}
}

type memberPayload struct {
	Handle string `json:"handle"`
	UserID string `json:"userId"`
}

type snapshotResponse struct {
	Slots       []slotPayload           `json:"reviewers"`
	Assignments map[int][]memberPayload `json:"assignments"`
}

func toSnapshotResponse(slots []model.ReviewerSlot, table distribute.Table) snapshotResponse {
	resp := snapshotResponse{
		Slots:       make([]slotPayload, len(slots)),
		Assignments: make(map[int][]memberPayload, len(table)),
	}
	for i, s := range slots {
		resp.Slots[i] = slotToPayload(s)
	}
	for idx, members := range table {
		out := make([]memberPayload, len(members))
		for i, m := range members {
			out[i] = memberPayload{Handle: m.Handle, UserID: m.UserID}
		}
		resp.Assignments[idx] = out
	}
	return resp
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	slots, table, err := s.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(slots, table))
}

func (s *Server) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	index, err := s.deps.AddSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

type updateSlotRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// reportResponse surfaces per-member reconciliation outcomes to the
// console. Failures are informational; the mutation itself succeeded.
type reportResponse struct {
	Results []reportItem `json:"results,omitempty"`
}

type reportItem struct {
	Op     string `json:"op"`
	Role   string `json:"role"`
	Handle string `json:"handle"`
	Error  string `json:"error,omitempty"`
}

func toReportResponse(report engine.BatchReport) reportResponse {
	var resp reportResponse
	for _, r := range report {
		item := reportItem{Op: r.Op, Role: r.Role.Name(), Handle: r.Handle}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req updateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var value interface{}
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			writeFieldError(w, req.Field, err)
			return
		}
	}

	report, err := s.deps.UpdateSlot(r.Context(), r.PathValue("id"), index, engine.SlotField(req.Field), value)
	if err != nil {
		if field := req.Field; field != "" && isValidation(err) {
			writeFieldError(w, field, err)
			return
		}
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.deps.RemoveSlot(r.Context(), r.PathValue("id"), index); err != nil {
		translateError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	total, err := s.deps.EstimateCost(r.Context(), r.PathValue("id"))
	if err != nil {
		translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"estimatedCost": total})
}

func (s *Server) handleMissingPhases(w http.ResponseWriter, r *http.Request) {
	missing, err := s.deps.MissingReviewPhases(r.Context(), r.PathValue("id"))
	if err != nil {
		translateError(w, err)
		return
	}
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"missingPhases": missing})
}
