package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"auctionhouse/internal/domain"
	"auctionhouse/pkg/logger"
)

const (
	saveTimeout  = 2 * time.Second
	saveAttempts = 3
)

// Store owns every auction plus the admin credentials behind one mutex.
// All read-modify-write sequences are serialized store-wide, and the
// injected snapshot store is invoked inside the same critical section so
// snapshots are written in mutation order. A failed save is logged and the
// in-memory state stands; the running process is the source of truth.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Auction
	bySlug map[string]string // slug -> id
	creds  domain.Credentials

	snaps domain.SnapshotStore
	log   logger.Logger
}

func New(snaps domain.SnapshotStore, log logger.Logger) *Store {
	return &Store{
		byID:   make(map[string]*domain.Auction),
		bySlug: make(map[string]string),
		snaps:  snaps,
		log:    log,
	}
}

// Restore replaces all in-memory state with the given snapshot. Called once
// at startup, before the store is shared.
func (s *Store) Restore(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*domain.Auction, len(snap.Auctions))
	s.bySlug = make(map[string]string, len(snap.Auctions))
	for _, a := range snap.Auctions {
		c := a.Clone()
		s.byID[c.ID] = c
		s.bySlug[c.Slug] = c.ID
	}
	s.creds = snap.Admin
}

// Snapshot returns a deep copy of the full state, auctions sorted by id for
// a stable on-disk layout.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *domain.Snapshot {
	auctions := make([]*domain.Auction, 0, len(s.byID))
	for _, a := range s.byID {
		auctions = append(auctions, a.Clone())
	}
	sort.Slice(auctions, func(i, j int) bool { return auctions[i].ID < auctions[j].ID })
	return &domain.Snapshot{
		Version:  domain.SnapshotVersion,
		Auctions: auctions,
		Admin:    s.creds,
	}
}

// GetBySlug returns a copy of the auction with the given slug.
func (s *Store) GetBySlug(slug string) (*domain.Auction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, false
	}
	return s.byID[id].Clone(), true
}

// GetByID returns a copy of the auction with the given id.
func (s *Store) GetByID(id string) (*domain.Auction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// List returns copies of all auctions sorted by start time.
func (s *Store) List() []*domain.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Auction, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// SlugTaken reports whether a slug is currently in use.
func (s *Store) SlugTaken(slug string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bySlug[slug]
	return ok
}

// Count returns the number of auctions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Insert adds a new auction. The slug uniqueness check happens under the
// write lock, so a colliding create from another goroutine gets
// ErrSlugTaken rather than overwriting.
func (s *Store) Insert(ctx context.Context, a *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySlug[a.Slug]; exists {
		return domain.ErrSlugTaken
	}
	c := a.Clone()
	s.byID[c.ID] = c
	s.bySlug[c.Slug] = c.ID
	s.persistLocked(ctx)
	return nil
}

// MutateBySlug runs fn on the live auction under the write lock. fn must
// either mutate and return nil, or leave the auction untouched and return
// an error. The read-validate-mutate-persist sequence is one exclusive
// unit: no two bids can observe the same before state.
func (s *Store) MutateBySlug(ctx context.Context, slug string, fn func(a *domain.Auction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if err := fn(s.byID[id]); err != nil {
		return err
	}
	s.persistLocked(ctx)
	return nil
}

// MutateByID is MutateBySlug keyed by id; admin edits come through here and
// share the bid path's exclusivity domain.
func (s *Store) MutateByID(ctx context.Context, id string, fn func(a *domain.Auction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if err := fn(a); err != nil {
		return err
	}
	s.persistLocked(ctx)
	return nil
}

// Delete removes an auction and releases its slug for reuse.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	delete(s.bySlug, a.Slug)
	delete(s.byID, id)
	s.persistLocked(ctx)
	return nil
}

// Credentials returns the current admin credentials.
func (s *Store) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// SetCredentials replaces the admin credentials and persists.
func (s *Store) SetCredentials(ctx context.Context, creds domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	s.persistLocked(ctx)
}

// Checkpoint re-saves the current state outside any mutation, as a safety
// net for an earlier save that failed. It holds the write lock across the
// save so it cannot overwrite a newer snapshot written by a concurrent
// mutation.
func (s *Store) Checkpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	return s.snaps.Save(saveCtx, s.snapshotLocked())
}

// persistLocked writes the snapshot with a short bounded retry so a slow
// backend cannot hang the critical section. Failure after a successful
// in-memory mutation is surfaced as a warning, never rolled back.
func (s *Store) persistLocked(ctx context.Context) {
	snap := s.snapshotLocked()

	// A caller hanging up must not abort the durability write.
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		err = s.snaps.Save(saveCtx, snap)
		cancel()
		if err == nil {
			return
		}
	}
	s.log.Warn("snapshot save failed, in-memory state retained",
		"error", err, "attempts", saveAttempts)
}
