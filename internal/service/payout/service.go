// Package payout settles finished rounds: it joins the persisted result
// array with the round's wager hash, credits winners, pushes each player
// their aggregated outcome, and feeds the totals back into the RTP
// counters.
package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"plinko_backend/internal/model"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/service"
	"plinko_backend/internal/wallet"
)

const (
	gameName = "plinko"

	// Wallet credits for one round run concurrently, but bounded so a
	// busy round cannot exhaust the gateway connection pool.
	creditConcurrency = 8
)

type Service struct {
	stateRepo   repository.RoundStateRepository
	wagerRepo   repository.WagerRepository
	wallet      service.WalletGateway
	tracker     service.RTPTracker
	broadcaster service.Broadcaster
	logger      zerolog.Logger
}

func NewService(
	stateRepo repository.RoundStateRepository,
	wagerRepo repository.WagerRepository,
	gateway service.WalletGateway,
	tracker service.RTPTracker,
	broadcaster service.Broadcaster,
	logger zerolog.Logger,
) *Service {
	return &Service{
		stateRepo:   stateRepo,
		wagerRepo:   wagerRepo,
		wallet:      gateway,
		tracker:     tracker,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Process settles one round. All credits are issued before the wager
// hash and results are cleaned up, and every failure short of a missing
// results array is logged and skipped rather than aborting the round.
func (s *Service) Process(ctx context.Context, market, roundID string) {
	results, err := s.stateRepo.GetResults(ctx, market, roundID)
	if err != nil {
		s.logger.Error().Err(err).Str("market", market).Str("roundId", roundID).Msg("payout: results read failed")
		return
	}
	wagers, err := s.wagerRepo.GetAllWagers(ctx, market, roundID)
	if err != nil {
		s.logger.Error().Err(err).Str("market", market).Str("roundId", roundID).Msg("payout: wagers read failed")
		return
	}

	if len(results) == 0 || len(wagers) == 0 {
		s.cleanup(ctx, market, roundID)
		return
	}

	multipliers := make(map[string]decimal.Decimal, len(results))
	for _, r := range results {
		multipliers[r.Symbol] = decimal.NewFromFloat(r.Multiplier)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(creditConcurrency)

	for playerID, playerWagers := range wagers {
		totalWager := decimal.Zero
		totalPayout := decimal.Zero
		bets := make([]model.BetBreakdown, 0, len(playerWagers))

		for _, w := range playerWagers {
			// The hash is external state; an entry without symbols would
			// divide by zero below.
			if len(w.Symbols) == 0 {
				s.logger.Warn().
					Str("market", market).
					Str("roundId", roundID).
					Str("playerId", playerID).
					Str("wagerTxId", w.TransactionID).
					Msg("payout: wager without symbols skipped")
				continue
			}

			amount := decimal.NewFromFloat(w.Amount)
			perSymbol := amount.Div(decimal.NewFromInt(int64(len(w.Symbols))))

			betWin := decimal.Zero
			for _, symbol := range w.Symbols {
				// Symbols missing from the results pay nothing.
				betWin = betWin.Add(perSymbol.Mul(multipliers[symbol]))
			}

			totalWager = totalWager.Add(amount)
			totalPayout = totalPayout.Add(betWin)
			bets = append(bets, model.BetBreakdown{
				BetID:      w.TransactionID,
				Symbols:    w.Symbols,
				Wager:      w.Amount,
				Payout:     betWin.InexactFloat64(),
				Multiplier: betWin.Div(amount).InexactFloat64(),
			})

			if betWin.IsPositive() {
				s.issueCredit(gctx, g, market, roundID, w, betWin.InexactFloat64())
			}
		}

		payout := model.PlayerPayout{
			RoundID:     roundID,
			Currency:    playerWagers[0].Currency,
			TotalWager:  totalWager.InexactFloat64(),
			TotalPayout: totalPayout.InexactFloat64(),
			NetProfit:   totalPayout.Sub(totalWager).InexactFloat64(),
			Bets:        bets,
		}
		s.broadcaster.EmitToPlayer(playerID, service.EventGamePayout, payout)

		if totalPayout.IsPositive() {
			s.tracker.RecordWin(ctx, market, totalPayout.InexactFloat64())
		}

		s.logger.Info().
			Str("market", market).
			Str("roundId", roundID).
			Str("playerId", playerID).
			Float64("totalWager", payout.TotalWager).
			Float64("totalPayout", payout.TotalPayout).
			Int("bets", len(bets)).
			Msg("player settled")
	}

	if err := g.Wait(); err != nil {
		// Individual credit failures are already logged; Wait only
		// returns a context error here.
		s.logger.Error().Err(err).Str("market", market).Str("roundId", roundID).Msg("payout: credit batch interrupted")
	}

	s.cleanup(ctx, market, roundID)
}

// issueCredit schedules one win credit on the bounded group. Failures
// are logged per bet and never abort the round.
func (s *Service) issueCredit(ctx context.Context, g *errgroup.Group, market, roundID string, w model.Wager, winAmount float64) {
	g.Go(func() error {
		res, err := s.wallet.Credit(ctx, wallet.CreditRequest{
			SessionToken:  w.SessionToken,
			WinAmount:     winAmount,
			Currency:      w.Currency,
			TransactionID: uuid.NewString(),
			PlayerID:      w.PlayerID,
			TenantID:      w.TenantID,
			Type:          wallet.CreditTypeWin,
			Metadata: map[string]any{
				"game":      gameName,
				"wagerTxId": w.TransactionID,
			},
		})
		if err != nil || !res.Success() {
			s.logger.Error().Err(err).
				Str("alert", "critical").
				Str("market", market).
				Str("roundId", roundID).
				Str("playerId", w.PlayerID).
				Str("wagerTxId", w.TransactionID).
				Float64("winAmount", winAmount).
				Msg("win credit failed")
		}
		return nil
	})
}

func (s *Service) cleanup(ctx context.Context, market, roundID string) {
	if err := s.wagerRepo.DeleteWagers(ctx, market, roundID); err != nil {
		s.logger.Warn().Err(err).Str("market", market).Str("roundId", roundID).Msg("payout: wager cleanup failed")
	}
	if err := s.stateRepo.DeleteResults(ctx, market, roundID); err != nil {
		s.logger.Warn().Err(err).Str("market", market).Str("roundId", roundID).Msg("payout: results cleanup failed")
	}
}
