package rtp

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"plinko_backend/internal/model"
)

type fakeRTPRepo struct {
	totalBet  float64
	totalWon  float64
	playCount int64
	failReads bool
}

func (f *fakeRTPRepo) IncrTotalBet(_ context.Context, _ string, amount float64) error {
	f.totalBet += amount
	return nil
}

func (f *fakeRTPRepo) IncrTotalWon(_ context.Context, _ string, amount float64) error {
	f.totalWon += amount
	return nil
}

func (f *fakeRTPRepo) IncrPlayCount(_ context.Context, _ string) error {
	f.playCount++
	return nil
}

func (f *fakeRTPRepo) GetCounters(_ context.Context, _ string) (float64, float64, int64, error) {
	if f.failReads {
		return 0, 0, 0, errors.New("connection refused")
	}
	return f.totalBet, f.totalWon, f.playCount, nil
}

func (f *fakeRTPRepo) Delete(_ context.Context, _ string) error {
	f.totalBet, f.totalWon, f.playCount = 0, 0, 0
	return nil
}

func TestTracker_RecordBetAccumulates(t *testing.T) {
	repo := &fakeRTPRepo{}
	tracker := NewTracker(repo, 100, 100000, zerolog.Nop())
	ctx := context.Background()

	tracker.RecordBet(ctx, "NASDAQ", 25)
	tracker.RecordBet(ctx, "NASDAQ", 75)

	assert.Equal(t, 100.0, repo.totalBet)
	assert.Equal(t, int64(2), repo.playCount)
}

func TestTracker_RecordBetResetsAtLimit(t *testing.T) {
	repo := &fakeRTPRepo{totalBet: 500000, totalWon: 482500, playCount: 1000}
	tracker := NewTracker(repo, 100, 1000, zerolog.Nop())

	tracker.RecordBet(context.Background(), "NASDAQ", 50)

	assert.Equal(t, 50.0, repo.totalBet)
	assert.Equal(t, 0.0, repo.totalWon)
	assert.Equal(t, int64(1), repo.playCount)
}

func TestTracker_GetMetricsDerivesRTP(t *testing.T) {
	repo := &fakeRTPRepo{totalBet: 10000, totalWon: 9650, playCount: 400}
	tracker := NewTracker(repo, 100, 100000, zerolog.Nop())

	metrics := tracker.GetMetrics(context.Background(), "NASDAQ")

	assert.Equal(t, 96.5, metrics.CurrentRTP)
	assert.True(t, tracker.HasEnoughData(metrics))
}

func TestTracker_GetMetricsZeroWithoutBets(t *testing.T) {
	tracker := NewTracker(&fakeRTPRepo{playCount: 50}, 100, 100000, zerolog.Nop())

	metrics := tracker.GetMetrics(context.Background(), "NASDAQ")

	assert.Equal(t, 0.0, metrics.CurrentRTP)
	assert.False(t, tracker.HasEnoughData(metrics))
}

func TestTracker_StoreFailureReadsAsNoData(t *testing.T) {
	tracker := NewTracker(&fakeRTPRepo{failReads: true}, 100, 100000, zerolog.Nop())

	metrics := tracker.GetMetrics(context.Background(), "NASDAQ")

	assert.Equal(t, model.RTPMetrics{}, metrics)
}
