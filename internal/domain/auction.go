package domain

import (
	"time"
)

// Auction is a single timed sale item with its own schedule, bid history
// and increment rules.
type Auction struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	StartingBid  float64   `json:"starting_bid"`
	MinIncrement float64   `json:"min_increment"`
	MaxIncrement *float64  `json:"max_increment,omitempty"` // nil means no upper bound
	CurrentBid   float64   `json:"current_bid"`
	Bids         []Bid     `json:"bids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bid is one accepted raise. Insertion order equals acceptance order.
type Bid struct {
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Bidder    string    `json:"bidder"`
}

type LifecycleState int

const (
	AuctionPending LifecycleState = iota
	AuctionActive
	AuctionEnded
)

func (s LifecycleState) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// StateAt derives the lifecycle state purely from the clock and the
// auction's window. Every caller that cares about lifecycle goes through
// here so validation and status reporting cannot drift apart.
func (a *Auction) StateAt(now time.Time) LifecycleState {
	if now.Before(a.StartsAt) {
		return AuctionPending
	}
	if now.Before(a.EndsAt) {
		return AuctionActive
	}
	return AuctionEnded
}

// AuctionStatus is the read-only projection served to polling clients.
type AuctionStatus struct {
	CurrentBid float64   `json:"current_bid"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	HasStarted bool      `json:"has_started"`
	Active     bool      `json:"active"`
	Ended      bool      `json:"ended"`
}

func (a *Auction) StatusAt(now time.Time) AuctionStatus {
	state := a.StateAt(now)
	return AuctionStatus{
		CurrentBid: a.CurrentBid,
		StartsAt:   a.StartsAt,
		EndsAt:     a.EndsAt,
		HasStarted: state != AuctionPending,
		Active:     state == AuctionActive,
		Ended:      state == AuctionEnded,
	}
}

// Clone returns a deep copy so readers never share the bid slice or the
// increment cap with the store's live instance.
func (a *Auction) Clone() *Auction {
	c := *a
	if a.MaxIncrement != nil {
		cap := *a.MaxIncrement
		c.MaxIncrement = &cap
	}
	if a.Bids != nil {
		c.Bids = make([]Bid, len(a.Bids))
		copy(c.Bids, a.Bids)
	}
	return &c
}
