package rtp_repo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	rtpKeyFmt = "plinko:rtp:%s"

	fieldTotalBet  = "totalBet"
	fieldTotalWon  = "totalWon"
	fieldPlayCount = "playCount"
)

// RTPRepo keeps the per-market RTP counters as a store hash so every
// instance reads and increments the same totals. Float fields use the
// store's atomic float increment, the play counter the integer one.
type RTPRepo struct {
	client *redis.Client
}

func NewRTPRepository(client *redis.Client) *RTPRepo {
	return &RTPRepo{client: client}
}

func (r *RTPRepo) IncrTotalBet(ctx context.Context, market string, amount float64) error {
	key := fmt.Sprintf(rtpKeyFmt, market)
	if err := r.client.HIncrByFloat(ctx, key, fieldTotalBet, amount).Err(); err != nil {
		return fmt.Errorf("incr total bet: %w", err)
	}
	return nil
}

func (r *RTPRepo) IncrTotalWon(ctx context.Context, market string, amount float64) error {
	key := fmt.Sprintf(rtpKeyFmt, market)
	if err := r.client.HIncrByFloat(ctx, key, fieldTotalWon, amount).Err(); err != nil {
		return fmt.Errorf("incr total won: %w", err)
	}
	return nil
}

func (r *RTPRepo) IncrPlayCount(ctx context.Context, market string) error {
	key := fmt.Sprintf(rtpKeyFmt, market)
	if err := r.client.HIncrBy(ctx, key, fieldPlayCount, 1).Err(); err != nil {
		return fmt.Errorf("incr play count: %w", err)
	}
	return nil
}

func (r *RTPRepo) GetCounters(ctx context.Context, market string) (float64, float64, int64, error) {
	key := fmt.Sprintf(rtpKeyFmt, market)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("get rtp counters: %w", err)
	}

	totalBet, err := parseFloatField(fields, fieldTotalBet)
	if err != nil {
		return 0, 0, 0, err
	}
	totalWon, err := parseFloatField(fields, fieldTotalWon)
	if err != nil {
		return 0, 0, 0, err
	}

	var playCount int64
	if raw, ok := fields[fieldPlayCount]; ok {
		playCount, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("parse %s: %w", fieldPlayCount, err)
		}
	}

	return totalBet, totalWon, playCount, nil
}

func (r *RTPRepo) Delete(ctx context.Context, market string) error {
	key := fmt.Sprintf(rtpKeyFmt, market)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete rtp counters: %w", err)
	}
	return nil
}

func parseFloatField(fields map[string]string, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}
