package rtp

import (
	"context"

	"github.com/rs/zerolog"

	"plinko_backend/internal/model"
	"plinko_backend/internal/repository"
)

// Tracker maintains the per-market RTP counters. Every operation
// swallows store errors with a warning: the counters steer long-run
// payout bias, and a glitch there must never take a round down.
type Tracker struct {
	repo      repository.RTPRepository
	threshold int64
	limit     int64
	logger    zerolog.Logger
}

func NewTracker(repo repository.RTPRepository, threshold, limit int64, logger zerolog.Logger) *Tracker {
	return &Tracker{
		repo:      repo,
		threshold: threshold,
		limit:     limit,
		logger:    logger,
	}
}

// RecordBet adds a bet to the market's totals. When the play counter has
// reached the configured limit the counters are wiped first, so the
// governor works on a rolling population instead of an ever-growing one.
func (t *Tracker) RecordBet(ctx context.Context, market string, amount float64) {
	_, _, playCount, err := t.repo.GetCounters(ctx, market)
	if err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp read failed, recording bet anyway")
	} else if playCount >= t.limit {
		t.logger.Info().
			Str("market", market).
			Int64("playCount", playCount).
			Int64("limit", t.limit).
			Msg("rtp play count limit reached, resetting counters")
		if err := t.repo.Delete(ctx, market); err != nil {
			t.logger.Warn().Err(err).Str("market", market).Msg("rtp reset failed")
		}
	}

	if err := t.repo.IncrTotalBet(ctx, market, amount); err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp total bet increment failed")
	}
	if err := t.repo.IncrPlayCount(ctx, market); err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp play count increment failed")
	}
}

func (t *Tracker) RecordWin(ctx context.Context, market string, amount float64) {
	if err := t.repo.IncrTotalWon(ctx, market, amount); err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp total won increment failed")
	}
}

// GetMetrics reads the counters and derives the current RTP. On a store
// error it returns zero metrics, which the engine treats as "not enough
// data" (uniform zone selection).
func (t *Tracker) GetMetrics(ctx context.Context, market string) model.RTPMetrics {
	totalBet, totalWon, playCount, err := t.repo.GetCounters(ctx, market)
	if err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp metrics read failed")
		return model.RTPMetrics{}
	}

	metrics := model.RTPMetrics{
		TotalBet:  totalBet,
		TotalWon:  totalWon,
		PlayCount: playCount,
	}
	if totalBet > 0 {
		metrics.CurrentRTP = totalWon / totalBet * 100
	}
	return metrics
}

func (t *Tracker) HasEnoughData(metrics model.RTPMetrics) bool {
	return metrics.PlayCount >= t.threshold
}

func (t *Tracker) Reset(ctx context.Context, market string) {
	if err := t.repo.Delete(ctx, market); err != nil {
		t.logger.Warn().Err(err).Str("market", market).Msg("rtp reset failed")
	}
}
