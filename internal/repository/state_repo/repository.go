package state_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"plinko_backend/internal/model"
)

const (
	stateKeyFmt     = "plinko:state:%s"
	stocksKeyFmt    = "plinko:%s:%s:stocks"
	startSnapKeyFmt = "plinko:%s:%s:start_snap"
	resultsKeyFmt   = "plinko:%s:%s:results"

	// Round-scoped keys outlive the round by a few minutes, then expire.
	roundKeyTTL = 300 * time.Second
)

type StateRepo struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) *StateRepo {
	return &StateRepo{client: client}
}

func (r *StateRepo) GetRoundState(ctx context.Context, market string) (*model.RoundState, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(stateKeyFmt, market)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get round state: %w", err)
	}

	var state model.RoundState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode round state: %w", err)
	}
	return &state, nil
}

func (r *StateRepo) SetRoundState(ctx context.Context, market string, state *model.RoundState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode round state: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(stateKeyFmt, market), raw, 0).Err(); err != nil {
		return fmt.Errorf("set round state: %w", err)
	}
	return nil
}

func (r *StateRepo) SetRoundStocks(ctx context.Context, market, roundID string, symbols []string) error {
	raw, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("encode round stocks: %w", err)
	}
	key := fmt.Sprintf(stocksKeyFmt, market, roundID)
	if err := r.client.Set(ctx, key, raw, roundKeyTTL).Err(); err != nil {
		return fmt.Errorf("set round stocks: %w", err)
	}
	return nil
}

func (r *StateRepo) SetStartSnapshot(ctx context.Context, market, roundID string, snap *model.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode start snapshot: %w", err)
	}
	key := fmt.Sprintf(startSnapKeyFmt, market, roundID)
	if err := r.client.Set(ctx, key, raw, roundKeyTTL).Err(); err != nil {
		return fmt.Errorf("set start snapshot: %w", err)
	}
	return nil
}

func (r *StateRepo) GetStartSnapshot(ctx context.Context, market, roundID string) (*model.Snapshot, error) {
	key := fmt.Sprintf(startSnapKeyFmt, market, roundID)
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get start snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode start snapshot: %w", err)
	}
	return &snap, nil
}

func (r *StateRepo) SetResults(ctx context.Context, market, roundID string, results []model.SymbolResult) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	key := fmt.Sprintf(resultsKeyFmt, market, roundID)
	if err := r.client.Set(ctx, key, raw, roundKeyTTL).Err(); err != nil {
		return fmt.Errorf("set results: %w", err)
	}
	return nil
}

func (r *StateRepo) GetResults(ctx context.Context, market, roundID string) ([]model.SymbolResult, error) {
	key := fmt.Sprintf(resultsKeyFmt, market, roundID)
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}

	var results []model.SymbolResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

func (r *StateRepo) DeleteResults(ctx context.Context, market, roundID string) error {
	key := fmt.Sprintf(resultsKeyFmt, market, roundID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	return nil
}
