package services

import (
	"math"
	"time"

	"auctionhouse/internal/domain"
)

// ValidateBid applies the acceptance rules for one proposed bid against a
// snapshot of the auction. It is a pure function: no I/O, no clock reads.
// On acceptance it returns the amount that becomes the new current bid,
// which is always the proposal itself rounded to two decimals. A proposal
// whose increment falls outside [minIncrement, maxIncrement] is rejected
// outright rather than rewritten, so the bid history records exactly what
// each bidder asked for.
func ValidateBid(a *domain.Auction, proposed float64, now time.Time) (float64, error) {
	switch a.StateAt(now) {
	case domain.AuctionPending:
		return 0, domain.ErrNotStarted
	case domain.AuctionEnded:
		return 0, domain.ErrEnded
	}

	if math.IsNaN(proposed) || math.IsInf(proposed, 0) {
		return 0, domain.ErrTooLow
	}
	amount := Round2(proposed)
	if amount <= a.CurrentBid {
		return 0, domain.ErrTooLow
	}

	inc := Round2(amount - a.CurrentBid)
	if inc < a.MinIncrement {
		return 0, domain.ErrBelowMinIncrement
	}
	if a.MaxIncrement != nil && inc > *a.MaxIncrement {
		return 0, domain.ErrAboveMaxIncrement
	}

	return amount, nil
}

// Round2 rounds to two decimal places, the finest unit bids are kept in.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
