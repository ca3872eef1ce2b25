package domain

import "errors"

// BidRejection is an expected, user-facing outcome of placing a bid.
// It travels as an error value but is not a fault; handlers translate
// the fixed Message into the response payload.
type BidRejection struct {
	Reason  string
	Message string
}

func (e *BidRejection) Error() string { return e.Message }

var (
	ErrNotStarted        = &BidRejection{Reason: "not_started", Message: "auction has not started yet"}
	ErrEnded             = &BidRejection{Reason: "ended", Message: "auction has ended"}
	ErrTooLow            = &BidRejection{Reason: "too_low", Message: "bid must be higher than the current bid"}
	ErrBelowMinIncrement = &BidRejection{Reason: "below_min_increment", Message: "bid does not meet the minimum increment"}
	ErrAboveMaxIncrement = &BidRejection{Reason: "above_max_increment", Message: "bid exceeds the maximum increment"}
)

var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrInvalidTimeWindow   = errors.New("end time must be after start time")
	ErrInvalidIncrement    = errors.New("minimum increment must be positive")
	ErrInvalidMaxIncrement = errors.New("maximum increment must exceed the minimum increment")
	ErrInvalidStartingBid  = errors.New("starting bid must not be negative")

	// ErrSlugTaken is internal to the create path; the engine retries with a
	// fresh disambiguator and never surfaces it.
	ErrSlugTaken = errors.New("slug already in use")
)

// AsRejection unwraps an expected bid rejection, if err is one.
func AsRejection(err error) (*BidRejection, bool) {
	var rej *BidRejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
