package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/store"
	"auctionhouse/pkg/logger"
)

// slugAttempts bounds the create loop; each retry carries a fresh random
// disambiguator, so exhausting this means something is very wrong.
const slugAttempts = 5

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Engine composes the store, the validator and the clock into the auction
// operations. All mutations funnel through the store's exclusivity
// boundary; the engine itself holds no state.
type Engine struct {
	store *store.Store
	clock domain.Clock
	log   logger.Logger
}

func NewEngine(st *store.Store, clock domain.Clock, log logger.Logger) *Engine {
	if clock == nil {
		clock = systemClock{}
	}
	return &Engine{store: st, clock: clock, log: log}
}

type CreateAuctionParams struct {
	Title        string
	Description  string
	StartsAt     time.Time
	EndsAt       time.Time
	StartingBid  float64
	MinIncrement float64
	MaxIncrement *float64
}

// CreateAuction validates the spec, assigns an id and a unique slug, and
// inserts the auction with its starting bid as the current bid.
func (e *Engine) CreateAuction(ctx context.Context, p CreateAuctionParams) (*domain.Auction, error) {
	if !p.EndsAt.After(p.StartsAt) {
		return nil, domain.ErrInvalidTimeWindow
	}
	if p.MinIncrement <= 0 {
		return nil, domain.ErrInvalidIncrement
	}
	if p.StartingBid < 0 {
		return nil, domain.ErrInvalidStartingBid
	}
	if p.MaxIncrement != nil && *p.MaxIncrement <= p.MinIncrement {
		return nil, domain.ErrInvalidMaxIncrement
	}

	now := e.clock.Now()
	a := &domain.Auction{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(p.Title),
		Description:  p.Description,
		StartsAt:     p.StartsAt,
		EndsAt:       p.EndsAt,
		StartingBid:  Round2(p.StartingBid),
		MinIncrement: Round2(p.MinIncrement),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	a.CurrentBid = a.StartingBid
	if p.MaxIncrement != nil {
		capped := Round2(*p.MaxIncrement)
		a.MaxIncrement = &capped
	}

	slug := Slugify(a.Title)
	if SlugReserved(slug) {
		slug = Disambiguate(slug)
	}
	for attempt := 0; attempt < slugAttempts; attempt++ {
		a.Slug = slug
		err := e.store.Insert(ctx, a)
		if err == nil {
			e.log.Info("auction created", "auction_id", a.ID, "slug", a.Slug)
			return a.Clone(), nil
		}
		if err != domain.ErrSlugTaken {
			return nil, err
		}
		slug = Disambiguate(Slugify(a.Title))
	}
	return nil, domain.ErrSlugTaken
}

// PlaceBid looks up the auction by slug, validates the proposal against the
// live state and, on acceptance, appends to the history and raises the
// current bid. The whole sequence runs under the store lock, persistence
// included, so concurrent bids on one auction serialize.
func (e *Engine) PlaceBid(ctx context.Context, slug string, amount float64, bidder string) (float64, error) {
	now := e.clock.Now()
	var newBid float64

	err := e.store.MutateBySlug(ctx, slug, func(a *domain.Auction) error {
		accepted, err := ValidateBid(a, amount, now)
		if err != nil {
			return err
		}
		a.Bids = append(a.Bids, domain.Bid{
			Amount:    accepted,
			Timestamp: now,
			Bidder:    strings.TrimSpace(bidder),
		})
		a.CurrentBid = accepted
		a.UpdatedAt = now
		newBid = accepted
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.log.Info("bid accepted", "slug", slug, "amount", newBid, "bidder", bidder)
	return newBid, nil
}

type UpdateAuctionParams struct {
	Title        *string
	Description  *string
	StartsAt     *time.Time
	EndsAt       *time.Time
	StartingBid  *float64
	MinIncrement *float64
	MaxIncrement *float64
	// ClearMaxIncrement removes the cap; distinct from leaving it unchanged.
	ClearMaxIncrement bool
}

// UpdateAuction applies only the fields present in the patch. The slug is
// immutable. A starting-bid change is honored only while the history is
// empty; otherwise it is silently ignored. Both window timestamps must be
// patched together so the window can never be made inconsistent.
func (e *Engine) UpdateAuction(ctx context.Context, id string, p UpdateAuctionParams) (*domain.Auction, error) {
	if (p.StartsAt == nil) != (p.EndsAt == nil) {
		return nil, domain.ErrInvalidTimeWindow
	}
	if p.StartsAt != nil && !p.EndsAt.After(*p.StartsAt) {
		return nil, domain.ErrInvalidTimeWindow
	}
	if p.MinIncrement != nil && *p.MinIncrement <= 0 {
		return nil, domain.ErrInvalidIncrement
	}

	var updated *domain.Auction
	err := e.store.MutateByID(ctx, id, func(a *domain.Auction) error {
		// Everything rejectable is checked before the first write to a, so
		// a failed patch leaves the live auction untouched.
		effMin := a.MinIncrement
		if p.MinIncrement != nil {
			effMin = *p.MinIncrement
		}
		effMax := a.MaxIncrement
		if p.ClearMaxIncrement {
			effMax = nil
		} else if p.MaxIncrement != nil {
			effMax = p.MaxIncrement
		}
		if effMax != nil && *effMax <= effMin {
			return domain.ErrInvalidMaxIncrement
		}
		if p.StartingBid != nil && len(a.Bids) == 0 && *p.StartingBid < 0 {
			return domain.ErrInvalidStartingBid
		}

		if p.Title != nil {
			a.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			a.Description = *p.Description
		}
		if p.StartsAt != nil {
			a.StartsAt = *p.StartsAt
			a.EndsAt = *p.EndsAt
		}
		if p.MinIncrement != nil {
			a.MinIncrement = Round2(*p.MinIncrement)
		}
		if p.ClearMaxIncrement {
			a.MaxIncrement = nil
		} else if p.MaxIncrement != nil {
			capped := Round2(*p.MaxIncrement)
			a.MaxIncrement = &capped
		}
		if p.StartingBid != nil && len(a.Bids) == 0 {
			a.StartingBid = Round2(*p.StartingBid)
			a.CurrentBid = a.StartingBid
		}
		a.UpdatedAt = e.clock.Now()
		updated = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("auction updated", "auction_id", id)
	return updated, nil
}

// DeleteAuction hard-deletes the auction and releases its slug.
func (e *Engine) DeleteAuction(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.log.Info("auction deleted", "auction_id", id)
	return nil
}

// Status returns the polling projection for one auction.
func (e *Engine) Status(slug string) (domain.AuctionStatus, error) {
	a, ok := e.store.GetBySlug(slug)
	if !ok {
		return domain.AuctionStatus{}, domain.ErrAuctionNotFound
	}
	return a.StatusAt(e.clock.Now()), nil
}

// GetAuction returns a copy of the auction with the given slug.
func (e *Engine) GetAuction(slug string) (*domain.Auction, error) {
	a, ok := e.store.GetBySlug(slug)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

// GetAuctionByID returns a copy of the auction with the given id.
func (e *Engine) GetAuctionByID(id string) (*domain.Auction, error) {
	a, ok := e.store.GetByID(id)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

// ListAuctions returns all auctions sorted by start time.
func (e *Engine) ListAuctions() []*domain.Auction {
	return e.store.List()
}

// Now exposes the engine's clock to callers that render time-derived views.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}
