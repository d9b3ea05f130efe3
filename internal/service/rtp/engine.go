package rtp

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"

	"github.com/rs/zerolog"

	"plinko_backend/internal/model"
)

// metricsSource is the slice of the tracker the engine needs.
type metricsSource interface {
	GetMetrics(ctx context.Context, market string) model.RTPMetrics
	HasEnoughData(metrics model.RTPMetrics) bool
}

// Engine maps per-symbol price deltas to multiplier slots. The sign of
// the delta fixes the color zone; the RTP governor then biases the pick
// inside GREEN/YELLOW toward the high or low half, pushing long-run
// payout toward the desired ratio. The engine mutates nothing.
type Engine struct {
	multipliers []float64
	zones       Zones
	desiredRTP  float64
	tracker     metricsSource
	logger      zerolog.Logger

	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewEngine builds an engine over the configured multiplier array. A nil
// rng gets an entropy-seeded source; tests inject a seeded one.
func NewEngine(multipliers []float64, desiredRTP float64, tracker metricsSource, rng *mathrand.Rand, logger zerolog.Logger) *Engine {
	if rng == nil {
		rng = mathrand.New(mathrand.NewSource(entropySeed()))
	}
	return &Engine{
		multipliers: multipliers,
		zones:       BuildZones(multipliers),
		desiredRTP:  desiredRTP,
		tracker:     tracker,
		logger:      logger,
		rng:         rng,
	}
}

func entropySeed() int64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Decide selects one multiplier slot per symbol.
func (e *Engine) Decide(ctx context.Context, market string, deltas []model.SymbolDelta) []model.SymbolResult {
	metrics := e.tracker.GetMetrics(ctx, market)
	governed := e.tracker.HasEnoughData(metrics)

	results := make([]model.SymbolResult, 0, len(deltas))
	for _, d := range deltas {
		var pool []int
		var reason string
		switch {
		case d.Delta < 0:
			pool, reason = e.zones.Red, "red_loss"
		case d.Delta == 0:
			pool, reason = e.selectSubset(governed, metrics.CurrentRTP, e.zones.Yellow, e.zones.YellowHigh, e.zones.YellowLow, "yellow")
		default:
			pool, reason = e.selectSubset(governed, metrics.CurrentRTP, e.zones.Green, e.zones.GreenHigh, e.zones.GreenLow, "green")
		}

		if len(pool) == 0 {
			// Degenerate multiplier config for this zone; any slot goes.
			pool = allIndices(len(e.multipliers))
			reason = "zone_empty_fallback"
		}

		idx := pool[e.intn(len(pool))]
		results = append(results, model.SymbolResult{
			Symbol:          d.Symbol,
			Delta:           d.Delta,
			MultiplierIndex: idx,
			Multiplier:      e.multipliers[idx],
			Reason:          reason,
		})

		e.logger.Debug().
			Str("market", market).
			Str("symbol", d.Symbol).
			Float64("delta", d.Delta).
			Int("multiplierIndex", idx).
			Float64("multiplier", e.multipliers[idx]).
			Str("reason", reason).
			Float64("currentRTP", metrics.CurrentRTP).
			Msg("multiplier slot selected")
	}
	return results
}

// selectSubset applies the governor inside one zone: uniform over the
// whole zone until enough plays accumulate (or at exact target), high
// half when paying under target, low half when paying over. An empty
// subset falls back to the full zone.
func (e *Engine) selectSubset(governed bool, currentRTP float64, zone, high, low []int, tag string) ([]int, string) {
	if !governed || currentRTP == e.desiredRTP {
		return zone, tag + "_uniform"
	}
	if currentRTP < e.desiredRTP {
		if len(high) > 0 {
			return high, tag + "_boost"
		}
		return zone, tag + "_uniform"
	}
	if len(low) > 0 {
		return low, tag + "_throttle"
	}
	return zone, tag + "_uniform"
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
