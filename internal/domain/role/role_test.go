package role_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/role"
)

func TestResolve(t *testing.T) {
	Convey("Given the phase-to-role mapping", t, func() {
		Convey("When resolving the fixed phase names", func() {
			So(role.Resolve("Review", false), ShouldEqual, role.Reviewer)
			So(role.Resolve("Approval", false), ShouldEqual, role.Approver)
			So(role.Resolve("Screening", false), ShouldEqual, role.Screener)
			So(role.Resolve("Checkpoint Screening", false), ShouldEqual, role.CheckpointScreener)
			So(role.Resolve("Checkpoint Review", false), ShouldEqual, role.CheckpointReviewer)
			So(role.Resolve("Iterative Review", false), ShouldEqual, role.IterativeReviewer)
		})

		Convey("When the phase name is cased or punctuated differently", func() {
			So(role.Resolve("checkpoint-review", false), ShouldEqual, role.CheckpointReviewer)
			So(role.Resolve("CHECKPOINT SCREENING", false), ShouldEqual, role.CheckpointScreener)
			So(role.Resolve("iterative review round 2", false), ShouldEqual, role.IterativeReviewer)
		})

		Convey("When the phase is unknown or empty", func() {
			Convey("Then it falls back to Reviewer", func() {
				So(role.Resolve("Registration", false), ShouldEqual, role.Reviewer)
				So(role.Resolve("", false), ShouldEqual, role.Reviewer)
			})
		})

		Convey("When the reviewer is AI", func() {
			Convey("Then the mapping does not change", func() {
				for _, name := range []string{"Review", "Approval", "Screening", "Checkpoint Review", "Iterative Review", "Whatever"} {
					So(role.Resolve(name, true), ShouldEqual, role.Resolve(name, false))
				}
			})
		})

		Convey("Then every result is one of the six fixed roles", func() {
			valid := make(map[role.Role]bool)
			for _, r := range role.All() {
				valid[r] = true
			}
			for _, name := range []string{"Review", "Submission", "Appeals", "", "post-mortem", "x"} {
				So(valid[role.Resolve(name, false)], ShouldBeTrue)
			}
		})
	})
}

func TestFromNameAndPhaseName(t *testing.T) {
	Convey("Given the closed role set", t, func() {
		Convey("When parsing external role names", func() {
			r, ok := role.FromName("Checkpoint Screener")
			So(ok, ShouldBeTrue)
			So(r, ShouldEqual, role.CheckpointScreener)

			_, ok = role.FromName("Copilot")
			So(ok, ShouldBeFalse)
		})

		Convey("When mapping roles back to phase names", func() {
			So(role.Reviewer.PhaseName(), ShouldEqual, "Review")
			So(role.Approver.PhaseName(), ShouldEqual, "Approval")
			So(role.Screener.PhaseName(), ShouldEqual, "Screening")
			So(role.CheckpointScreener.PhaseName(), ShouldEqual, "Checkpoint Screening")
			So(role.CheckpointReviewer.PhaseName(), ShouldEqual, "Checkpoint Review")
			So(role.IterativeReviewer.PhaseName(), ShouldEqual, "Iterative Review")
		})

		Convey("Then PhaseName round-trips through Resolve for every role", func() {
			for _, r := range role.All() {
				So(role.Resolve(r.PhaseName(), false), ShouldEqual, r)
			}
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given mixed-format phase names", t, func() {
		So(role.Normalize("Checkpoint Review"), ShouldEqual, "checkpointreview")
		So(role.Normalize("checkpoint-review"), ShouldEqual, "checkpointreview")
		So(role.Normalize("Post-mortem"), ShouldEqual, "postmortem")
	})
}
