// Package phase checks challenge phase configurations against the
// mandatory review protocol.
package phase

import (
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/role"
)

// requiredPhases lists, in canonical capitalization, every phase that
// must carry a scored reviewer when the challenge configures it.
var requiredPhases = []string{
	"Screening",
	"Review",
	"Post-mortem",
	"Approval",
	"Checkpoint Screening",
	"Iterative Review",
}

// RequiredPhases returns the canonical required phase names.
func RequiredPhases() []string {
	out := make([]string, len(requiredPhases))
	copy(out, requiredPhases)
	return out
}

// MissingReviewPhases reports which mandatory review phases configured
// on the challenge still lack a reviewer slot with a scorecard. Phases
// the challenge does not configure are not reported. Marathon Match
// challenges are exempt and always yield nil.
//
// A slot satisfies a phase when it targets that phase and carries a
// non-empty scorecard reference; AI slots qualify through the
// scorecard derived from their workflow.
func MissingReviewPhases(challenge model.Challenge, slots []model.ReviewerSlot) []string {
	if challenge.IsMarathonMatch() {
		return nil
	}

	var missing []string
	for _, required := range requiredPhases {
		normalized := role.Normalize(required)

		var configured *model.Phase
		for i := range challenge.Phases {
			if role.Normalize(challenge.Phases[i].Name) == normalized {
				configured = &challenge.Phases[i]
				break
			}
		}
		if configured == nil {
			continue // absent phases are not required
		}

		if !phaseSatisfied(*configured, slots) {
			missing = append(missing, required)
		}
	}
	return missing
}

func phaseSatisfied(p model.Phase, slots []model.ReviewerSlot) bool {
	for _, s := range slots {
		if s.PhaseID == p.ID && s.ScorecardID != "" {
			return true
		}
	}
	return false
}
