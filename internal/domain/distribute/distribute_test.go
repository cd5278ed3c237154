package distribute_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/distribute"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
)

func testChallenge() model.Challenge {
	return model.Challenge{
		ID:       "c1",
		TypeName: "Challenge",
		Phases: []model.Phase{
			{ID: "p-screen", Name: "Screening"},
			{ID: "p-review", Name: "Review"},
			{ID: "p-approval", Name: "Approval"},
		},
	}
}

func TestDistribute(t *testing.T) {
	Convey("Given reviewer slots and external role assignments", t, func() {
		challenge := testChallenge()
		slots := []model.ReviewerSlot{
			{Kind: model.MemberReview, PhaseID: "p-review", ScorecardID: "sc1"},
			{Kind: model.MemberReview, PhaseID: "p-screen", ScorecardID: "sc2"},
		}
		assignments := []model.RoleAssignment{
			{ChallengeID: "c1", RoleName: "Reviewer", MemberHandle: "alice", MemberID: "100"},
			{ChallengeID: "c1", RoleName: "Screener", MemberHandle: "bob", MemberID: "200"},
		}

		Convey("When distributing", func() {
			table := distribute.Distribute(assignments, slots, challenge)

			Convey("Then each assignment lands in its phase's slot", func() {
				So(table[0], ShouldResemble, []model.AssignedMember{{Handle: "alice", UserID: "100"}})
				So(table[1], ShouldResemble, []model.AssignedMember{{Handle: "bob", UserID: "200"}})
			})
		})

		Convey("When two slots share the Review phase", func() {
			shared := append(slots, model.ReviewerSlot{Kind: model.MemberReview, PhaseID: "p-review", ScorecardID: "sc3"})
			table := distribute.Distribute(assignments, shared, challenge)

			Convey("Then one hire appears in every same-phase slot", func() {
				// Phase-scoped fan-out: the external system has no slot
				// concept, so headcount reconciliation narrows this later.
				So(table[0], ShouldResemble, []model.AssignedMember{{Handle: "alice", UserID: "100"}})
				So(table[2], ShouldResemble, []model.AssignedMember{{Handle: "alice", UserID: "100"}})
			})
		})

		Convey("When an assignment's role is outside the reviewer set", func() {
			extra := append(assignments, model.RoleAssignment{RoleName: "Copilot", MemberHandle: "carol"})
			table := distribute.Distribute(extra, slots, challenge)

			Convey("Then it is ignored", func() {
				So(table[0], ShouldHaveLength, 1)
				So(table[1], ShouldHaveLength, 1)
			})
		})

		Convey("When a slot has no phase chosen yet", func() {
			pending := []model.ReviewerSlot{{Kind: model.MemberReview}}
			table := distribute.Distribute(assignments, pending, challenge)

			Convey("Then nothing is distributed to it", func() {
				So(table, ShouldBeEmpty)
			})
		})

		Convey("When distributing twice with identical inputs", func() {
			first := distribute.Distribute(assignments, slots, challenge)
			second := distribute.Distribute(assignments, slots, challenge)

			Convey("Then the tables are structurally equal", func() {
				So(first.Equal(second), ShouldBeTrue)
			})
		})
	})
}

func TestTableCloneAndEqual(t *testing.T) {
	Convey("Given an assignment table", t, func() {
		table := distribute.Table{
			0: {{Handle: "alice", UserID: "100"}, {Handle: "bob", UserID: "200"}},
		}

		Convey("Clone is deep", func() {
			cp := table.Clone()
			cp[0][0].Handle = "mallory"
			So(table[0][0].Handle, ShouldEqual, "alice")
		})

		Convey("Equal distinguishes empty from missing entries", func() {
			So(table.Equal(table.Clone()), ShouldBeTrue)
			withEmpty := table.Clone()
			withEmpty[1] = []model.AssignedMember{}
			So(table.Equal(withEmpty), ShouldBeFalse)
		})
	})
}
