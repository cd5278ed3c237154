// Package role maps challenge phases to the resource system's named
// reviewer roles.
package role

import "strings"

// Role is one of the fixed reviewer role names the resource system
// understands. It is a closed set; use Resolve or FromName to obtain a
// value and compare Roles directly rather than matching strings.
type Role string

// The complete role set.
const (
	Reviewer           Role = "Reviewer"
	IterativeReviewer  Role = "Iterative Reviewer"
	Approver           Role = "Approver"
	Screener           Role = "Screener"
	CheckpointScreener Role = "Checkpoint Screener"
	CheckpointReviewer Role = "Checkpoint Reviewer"
)

// All returns every role in the closed set.
func All() []Role {
	return []Role{
		Reviewer,
		IterativeReviewer,
		Approver,
		Screener,
		CheckpointScreener,
		CheckpointReviewer,
	}
}

// Normalize lowercases a phase display name and strips spaces and
// hyphens so that "Checkpoint Review", "checkpoint-review" and
// "CheckpointReview" compare equal.
func Normalize(phaseName string) string {
	s := strings.ToLower(phaseName)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Resolve maps a phase display name to the role a reviewer on that
// phase occupies. AI and member reviewers on the same phase resolve to
// the same role; both compete for the same named capacity and differ
// only in staffing mechanism. Total: unknown or empty phase names
// resolve to Reviewer.
func Resolve(phaseName string, isAIReviewer bool) Role {
	_ = isAIReviewer // staffing mechanism does not change role identity
	switch n := Normalize(phaseName); {
	case strings.Contains(n, "iterativereview"):
		return IterativeReviewer
	case n == "approval":
		return Approver
	case n == "checkpointscreening":
		return CheckpointScreener
	case n == "checkpointreview":
		return CheckpointReviewer
	case n == "screening":
		return Screener
	default:
		return Reviewer
	}
}

// Name returns the role's external display name.
func (r Role) Name() string {
	return string(r)
}

// FromName parses an external role name into a Role. The match is
// exact; names outside the closed set report ok=false.
func FromName(name string) (Role, bool) {
	for _, r := range All() {
		if string(r) == name {
			return r, true
		}
	}
	return "", false
}

// PhaseName returns the canonical phase display name a role reviews.
// It is the inverse of Resolve restricted to the closed role set.
func (r Role) PhaseName() string {
	switch r {
	case IterativeReviewer:
		return "Iterative Review"
	case Approver:
		return "Approval"
	case CheckpointScreener:
		return "Checkpoint Screening"
	case CheckpointReviewer:
		return "Checkpoint Review"
	case Screener:
		return "Screening"
	default:
		return "Review"
	}
}
