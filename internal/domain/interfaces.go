package domain

import (
	"context"
	"time"
)

// SnapshotStore is the persistence adapter contract. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Clock supplies current time so lifecycle decisions are testable.
type Clock interface {
	Now() time.Time
}
