package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"auctionhouse/internal/domain"
)

// SnapshotStore keeps the full snapshot as a JSON blob in a one-row table.
type SnapshotStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS snapshots (
            id TINYINT NOT NULL PRIMARY KEY,
            data MEDIUMBLOB NOT NULL,
            updated_at DATETIME NOT NULL
        )
    `
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	query := `SELECT data FROM snapshots WHERE id = 1`

	var data []byte
	err := s.db.QueryRowContext(ctx, query).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	query := `REPLACE INTO snapshots (id, data, updated_at) VALUES (1, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, data, time.Now())
	return err
}
