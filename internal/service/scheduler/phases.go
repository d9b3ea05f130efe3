package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"plinko_backend/internal/model"
)

// enterBetting opens a fresh round: pick this round's symbols from the
// snapshot, seed their display prices, and start accepting wagers.
func (s *Service) enterBetting(ctx context.Context, market string) (time.Duration, error) {
	snap, err := s.snapshots.GetSnapshot(ctx, market)
	if err != nil {
		return 0, fmt.Errorf("betting snapshot: %w", err)
	}
	if snap == nil || len(snap.Symbols) == 0 {
		s.logger.Warn().Str("market", market).Msg("no snapshot available yet, retrying")
		return noSnapRetry, nil
	}

	roundID := s.nextRoundID()

	count := s.cfg.StockCount()
	if count > len(snap.Symbols) {
		count = len(snap.Symbols)
	}
	symbols := lo.Samples(lo.Keys(snap.Symbols), count)

	if err := s.stateRepo.SetRoundStocks(ctx, market, roundID, symbols); err != nil {
		return 0, fmt.Errorf("persist round stocks: %w", err)
	}

	stocks := make([]model.Stock, 0, len(symbols))
	for _, symbol := range symbols {
		price, _ := snap.Price(symbol)
		p := price
		stocks = append(stocks, model.Stock{Symbol: symbol, CurrentPrice: &p})
	}

	nowMS := s.now().UnixMilli()
	state := &model.RoundState{
		Phase:      model.PhaseBetting,
		RoundID:    roundID,
		ServerTime: nowMS,
		EndTime:    nowMS + s.cfg.BetTime().Milliseconds(),
		Stocks:     stocks,
		CanUnbet:   true,
	}
	if err := s.writeAndBroadcast(ctx, market, state); err != nil {
		return 0, fmt.Errorf("enter betting: %w", err)
	}

	s.logger.Info().Str("market", market).Str("roundId", roundID).Strs("symbols", symbols).Msg("round opened")
	return clampTick(s.cfg.BetTime()), nil
}

// enterAccumulation freezes the start prices: the snapshot taken here is
// the baseline every delta is measured against.
func (s *Service) enterAccumulation(ctx context.Context, market string, state *model.RoundState) (time.Duration, error) {
	snap, err := s.snapshots.GetSnapshot(ctx, market)
	if err != nil {
		return 0, fmt.Errorf("accumulation snapshot: %w", err)
	}
	if snap == nil {
		return 0, fmt.Errorf("accumulation snapshot missing for %s", market)
	}

	if err := s.stateRepo.SetStartSnapshot(ctx, market, state.RoundID, snap); err != nil {
		return 0, fmt.Errorf("persist start snapshot: %w", err)
	}

	for i := range state.Stocks {
		if price, ok := snap.Price(state.Stocks[i].Symbol); ok {
			p := price
			state.Stocks[i].CurrentPrice = &p
			start := price
			state.Stocks[i].StartPrice = &start
		} else if state.Stocks[i].CurrentPrice != nil {
			start := *state.Stocks[i].CurrentPrice
			state.Stocks[i].StartPrice = &start
		}
	}

	nowMS := s.now().UnixMilli()
	state.Phase = model.PhaseAccumulation
	state.ServerTime = nowMS
	state.EndTime = nowMS + s.cfg.DeltaTime().Milliseconds()
	state.CanUnbet = false

	if err := s.writeAndBroadcast(ctx, market, state); err != nil {
		return 0, fmt.Errorf("enter accumulation: %w", err)
	}
	return clampTick(s.cfg.DeltaTime()), nil
}

// enterDropping closes the measurement window: compute deltas, let the
// decision engine pick a slot per symbol, and announce the outcome.
func (s *Service) enterDropping(ctx context.Context, market string, state *model.RoundState) (time.Duration, error) {
	end, err := s.snapshots.GetSnapshot(ctx, market)
	if err != nil {
		return 0, fmt.Errorf("end snapshot: %w", err)
	}
	if end == nil {
		return 0, fmt.Errorf("end snapshot missing for %s", market)
	}

	start, err := s.stateRepo.GetStartSnapshot(ctx, market, state.RoundID)
	if err != nil {
		return 0, fmt.Errorf("start snapshot: %w", err)
	}
	if start == nil {
		// Start snapshot expired or was never written; a zero-delta
		// round beats a failed one.
		s.logger.Warn().Str("market", market).Str("roundId", state.RoundID).Msg("start snapshot missing, using end snapshot")
		start = end
	}

	deltas := make([]model.SymbolDelta, 0, len(state.Stocks))
	endPrices := make(map[string]float64, len(state.Stocks))
	for _, stock := range state.Stocks {
		startPrice, ok := start.Price(stock.Symbol)
		if !ok && stock.StartPrice != nil {
			startPrice = *stock.StartPrice
		}
		endPrice, ok := end.Price(stock.Symbol)
		if !ok {
			endPrice = startPrice
		}
		endPrices[stock.Symbol] = endPrice
		deltas = append(deltas, model.SymbolDelta{
			Symbol: stock.Symbol,
			Delta:  computeDelta(startPrice, endPrice),
		})
	}

	results := s.engine.Decide(ctx, market, deltas)
	if err := s.stateRepo.SetResults(ctx, market, state.RoundID, results); err != nil {
		return 0, fmt.Errorf("persist results: %w", err)
	}

	bySymbol := make(map[string]model.SymbolResult, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}
	for i := range state.Stocks {
		r, ok := bySymbol[state.Stocks[i].Symbol]
		if !ok {
			continue
		}
		price := endPrices[state.Stocks[i].Symbol]
		delta := r.Delta
		idx := r.MultiplierIndex
		mult := r.Multiplier
		state.Stocks[i].CurrentPrice = &price
		state.Stocks[i].Delta = &delta
		state.Stocks[i].MultiplierIndex = &idx
		state.Stocks[i].Multiplier = &mult
	}

	nowMS := s.now().UnixMilli()
	state.Phase = model.PhaseDropping
	state.ServerTime = nowMS
	state.EndTime = nowMS + s.cfg.DropTime().Milliseconds()
	state.CanUnbet = false

	if err := s.writeAndBroadcast(ctx, market, state); err != nil {
		return 0, fmt.Errorf("enter dropping: %w", err)
	}

	s.logger.Info().Str("market", market).Str("roundId", state.RoundID).Msg("results announced")
	return clampTick(s.cfg.DropTime()), nil
}

// enterPayout flips the phase, then hands settlement to the payout
// pipeline on its own goroutine so the tick never waits on the wallet.
func (s *Service) enterPayout(ctx context.Context, market string, state *model.RoundState) (time.Duration, error) {
	nowMS := s.now().UnixMilli()
	state.Phase = model.PhasePayout
	state.ServerTime = nowMS
	state.EndTime = nowMS + s.cfg.PayoutTime().Milliseconds()
	state.CanUnbet = false

	if err := s.writeAndBroadcast(ctx, market, state); err != nil {
		return 0, fmt.Errorf("enter payout: %w", err)
	}

	roundID := state.RoundID
	go s.payout.Process(ctx, market, roundID)

	return clampTick(s.cfg.PayoutTime()), nil
}

// computeDelta is the percentage move between start and end, rounded to
// three decimals. Non-positive start prices read as no movement.
func computeDelta(start, end float64) float64 {
	if start <= 0 {
		return 0
	}
	return math.Round((end-start)/start*100*1000) / 1000
}
