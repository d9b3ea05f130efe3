package wager_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plinko_backend/internal/model"
)

const (
	betsKeyFmt = "plinko:bets:%s:%s"

	// The hash outlives the round by a few minutes, then expires.
	betsKeyTTLSeconds = 300
)

// appendScript appends one wager to the player's serialized list inside
// the round hash. Load-modify-store runs inside the store so concurrent
// placements from different instances never overwrite each other.
var appendScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
local list
if current then
	list = cjson.decode(current)
else
	list = {}
end
table.insert(list, cjson.decode(ARGV[2]))
redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(list))
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[3]))
return #list
`)

// removeScript removes the wager with the given transaction id from the
// player's list and returns it; deletes the field when the list empties.
var removeScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then
	return false
end
local list = cjson.decode(current)
local removed = false
local rest = {}
for _, wager in ipairs(list) do
	if removed == false and wager.transactionId == ARGV[2] then
		removed = wager
	else
		table.insert(rest, wager)
	end
end
if removed == false then
	return false
end
if #rest == 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
else
	redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(rest))
end
return cjson.encode(removed)
`)

type WagerRepo struct {
	client *redis.Client
}

func NewWagerRepository(client *redis.Client) *WagerRepo {
	return &WagerRepo{client: client}
}

func (r *WagerRepo) AppendWager(ctx context.Context, market, roundID string, wager model.Wager) error {
	raw, err := json.Marshal(wager)
	if err != nil {
		return fmt.Errorf("encode wager: %w", err)
	}
	key := fmt.Sprintf(betsKeyFmt, market, roundID)
	if err := appendScript.Run(ctx, r.client, []string{key}, wager.PlayerID, raw, betsKeyTTLSeconds).Err(); err != nil {
		return fmt.Errorf("append wager: %w", err)
	}
	return nil
}

func (r *WagerRepo) RemoveWager(ctx context.Context, market, roundID, playerID, transactionID string) (*model.Wager, error) {
	key := fmt.Sprintf(betsKeyFmt, market, roundID)
	raw, err := removeScript.Run(ctx, r.client, []string{key}, playerID, transactionID).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove wager: %w", err)
	}

	var removed model.Wager
	if err := json.Unmarshal([]byte(raw), &removed); err != nil {
		return nil, fmt.Errorf("decode removed wager: %w", err)
	}
	return &removed, nil
}

func (r *WagerRepo) GetAllWagers(ctx context.Context, market, roundID string) (map[string][]model.Wager, error) {
	key := fmt.Sprintf(betsKeyFmt, market, roundID)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get wagers: %w", err)
	}

	out := make(map[string][]model.Wager, len(fields))
	for playerID, raw := range fields {
		var wagers []model.Wager
		if err := json.Unmarshal([]byte(raw), &wagers); err != nil {
			return nil, fmt.Errorf("decode wagers for player %s: %w", playerID, err)
		}
		out[playerID] = wagers
	}
	return out, nil
}

func (r *WagerRepo) DeleteWagers(ctx context.Context, market, roundID string) error {
	key := fmt.Sprintf(betsKeyFmt, market, roundID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete wagers: %w", err)
	}
	return nil
}
