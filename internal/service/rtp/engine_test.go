package rtp

import (
	"context"
	mathrand "math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinko_backend/internal/model"
)

type stubMetrics struct {
	metrics  model.RTPMetrics
	governed bool
}

func (s *stubMetrics) GetMetrics(_ context.Context, _ string) model.RTPMetrics { return s.metrics }
func (s *stubMetrics) HasEnoughData(_ model.RTPMetrics) bool                   { return s.governed }

func newTestEngine(t *testing.T, metrics model.RTPMetrics, governed bool) *Engine {
	t.Helper()
	return NewEngine(
		defaultMultipliers,
		96.5,
		&stubMetrics{metrics: metrics, governed: governed},
		mathrand.New(mathrand.NewSource(1)),
		zerolog.Nop(),
	)
}

func decideOne(t *testing.T, e *Engine, delta float64) model.SymbolResult {
	t.Helper()
	results := e.Decide(context.Background(), "NASDAQ", []model.SymbolDelta{{Symbol: "AAPL", Delta: delta}})
	require.Len(t, results, 1)
	return results[0]
}

func TestDecide_NegativeDeltaAlwaysLoses(t *testing.T) {
	e := newTestEngine(t, model.RTPMetrics{}, false)

	for i := 0; i < 50; i++ {
		r := decideOne(t, e, -1.25)
		assert.Equal(t, 0.0, r.Multiplier)
		assert.Contains(t, []int{3, 5}, r.MultiplierIndex)
		assert.Equal(t, "red_loss", r.Reason)
	}
}

func TestDecide_LowRTPBoostsHighSlots(t *testing.T) {
	metrics := model.RTPMetrics{TotalBet: 10000, TotalWon: 9420, PlayCount: 1250, CurrentRTP: 94.2}
	e := newTestEngine(t, metrics, true)

	for i := 0; i < 50; i++ {
		green := decideOne(t, e, 2.031)
		assert.Contains(t, []int{0, 8}, green.MultiplierIndex)
		assert.Equal(t, "green_boost", green.Reason)

		yellow := decideOne(t, e, 0)
		assert.Contains(t, []int{2, 6}, yellow.MultiplierIndex)
		assert.Equal(t, "yellow_boost", yellow.Reason)
	}
}

func TestDecide_HighRTPThrottlesToLowSlots(t *testing.T) {
	metrics := model.RTPMetrics{TotalBet: 10000, TotalWon: 9820, PlayCount: 1500, CurrentRTP: 98.2}
	e := newTestEngine(t, metrics, true)

	for i := 0; i < 50; i++ {
		green := decideOne(t, e, 0.5)
		assert.Contains(t, []int{1, 7}, green.MultiplierIndex)
		assert.Equal(t, "green_throttle", green.Reason)

		yellow := decideOne(t, e, 0)
		assert.Equal(t, 4, yellow.MultiplierIndex)
		assert.Equal(t, 0.5, yellow.Multiplier)
		assert.Equal(t, "yellow_throttle", yellow.Reason)
	}
}

func TestDecide_UngovernedUsesFullZone(t *testing.T) {
	e := newTestEngine(t, model.RTPMetrics{PlayCount: 5}, false)

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		r := decideOne(t, e, 1.0)
		assert.Contains(t, []int{0, 1, 7, 8}, r.MultiplierIndex)
		assert.Equal(t, "green_uniform", r.Reason)
		seen[r.MultiplierIndex] = true
	}
	// Uniform selection over the zone should reach all four slots.
	assert.Len(t, seen, 4)
}

func TestDecide_EmptyZoneFallsBackToAllSlots(t *testing.T) {
	// No zero multipliers on this board, so RED is empty.
	e := NewEngine(
		[]float64{2, 1.2, 3},
		96.5,
		&stubMetrics{},
		mathrand.New(mathrand.NewSource(1)),
		zerolog.Nop(),
	)

	r := decideOne(t, e, -3)
	assert.Contains(t, []int{0, 1, 2}, r.MultiplierIndex)
	assert.Equal(t, "zone_empty_fallback", r.Reason)
}

func TestDecide_ResultCarriesDelta(t *testing.T) {
	e := newTestEngine(t, model.RTPMetrics{}, false)

	r := decideOne(t, e, -0.731)
	assert.Equal(t, "AAPL", r.Symbol)
	assert.Equal(t, -0.731, r.Delta)
}
