package snapshot_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plinko_backend/internal/model"
)

// The ingestion pipeline owns this key; the engine only reads it.
const snapshotKeyFmt = "plinko:marketdata:%s"

type SnapshotRepo struct {
	client *redis.Client
}

func NewSnapshotRepository(client *redis.Client) *SnapshotRepo {
	return &SnapshotRepo{client: client}
}

func (r *SnapshotRepo) GetSnapshot(ctx context.Context, market string) (*model.Snapshot, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(snapshotKeyFmt, market)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
