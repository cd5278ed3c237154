// Package cost estimates the review budget implied by a slot
// configuration.
package cost

import (
	"math"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
)

// DefaultSubmissionCount is the assumed number of submissions each
// reviewer will score when no better estimate exists.
const DefaultSubmissionCount = 2

// FirstPlacePrize reads the first placement prize of a challenge.
// A challenge without a PLACEMENT prize set yields 0.
func FirstPlacePrize(challenge model.Challenge) float64 {
	for _, set := range challenge.PrizeSets {
		if set.Type != model.PlacementPrizeSet {
			continue
		}
		if len(set.Prizes) == 0 {
			return 0
		}
		return set.Prizes[0].Value
	}
	return 0
}

// Estimate computes the total estimated review payment across slots,
// rounded to cents. Only member review slots contribute; AI slots are
// excluded from payment estimation.
//
// Per slot: (fixed + (base + incremental*submissions) * prize) * headcount.
func Estimate(slots []model.ReviewerSlot, firstPlacePrize float64, submissionCount int) float64 {
	var total float64
	for _, s := range slots {
		if s.Kind != model.MemberReview {
			continue
		}
		count := s.MemberReviewerCount
		if count < 1 {
			count = 1
		}
		perReviewer := s.FixedAmount +
			(s.BaseCoefficient+s.IncrementalCoefficient*float64(submissionCount))*firstPlacePrize
		total += perReviewer * float64(count)
	}
	return math.Round(total*100) / 100
}
