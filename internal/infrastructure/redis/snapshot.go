package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"

	"auctionhouse/internal/domain"
)

const defaultKey = "auctionhouse:snapshot"

// SnapshotStore keeps the full snapshot as a JSON blob under one key.
type SnapshotStore struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *SnapshotStore {
	if key == "" {
		key = defaultKey
	}
	return &SnapshotStore{client: client, key: key}
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, string(data), 0).Err()
}
