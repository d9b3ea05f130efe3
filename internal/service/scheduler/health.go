package scheduler

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"plinko_backend/internal/model"
	"plinko_backend/internal/service"
	"plinko_backend/internal/wallet"
)

const (
	marketStatusOpen   = "OPEN"
	marketStatusClosed = "CLOSED"

	pausedRecheckMS = 2000

	refundConcurrency = 8
)

type marketStatusPayload struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// tripBreaker moves the market into PAUSED when the data feed goes
// stale. A round that has not produced results yet is cancelled and its
// wagers refunded; a round past DROPPING already has an outcome and
// settles normally.
func (s *Service) tripBreaker(ctx context.Context, market string) {
	state, err := s.stateRepo.GetRoundState(ctx, market)
	if err != nil {
		s.logger.Error().Err(err).Str("market", market).Msg("breaker: load round state failed")
		return
	}
	if state != nil && state.Phase == model.PhasePaused {
		return
	}

	s.logger.Warn().Str("market", market).Msg("market data stale, pausing market")

	if state != nil && (state.Phase == model.PhaseBetting || state.Phase == model.PhaseAccumulation) {
		s.broadcaster.EmitToMarket(market, service.EventGameError, errorPayload{
			Code:    "ROUND_CANCELLED",
			Message: "Bets refunded",
		})
		s.refundRound(ctx, market, state.RoundID)
	}

	nowMS := s.now().UnixMilli()
	paused := &model.RoundState{
		Phase:      model.PhasePaused,
		ServerTime: nowMS,
		EndTime:    nowMS + pausedRecheckMS,
		Message:    "Market data unstable",
	}
	if err := s.writeAndBroadcast(ctx, market, paused); err != nil {
		s.logger.Error().Err(err).Str("market", market).Msg("breaker: pause write failed")
	}

	s.broadcaster.EmitToMarket(market, service.EventMarketStatus, marketStatusPayload{
		Status:    marketStatusClosed,
		Reason:    "Market data unstable",
		Timestamp: nowMS,
	})
}

// refundRound returns every stake from the cancelled round. Refunds are
// best effort per wager; failures are flagged for reconciliation and do
// not block the pause.
func (s *Service) refundRound(ctx context.Context, market, roundID string) {
	wagers, err := s.wagerRepo.GetAllWagers(ctx, market, roundID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("alert", "critical").
			Str("market", market).
			Str("roundId", roundID).
			Msg("breaker: wagers read failed, refunds skipped")
		return
	}
	if len(wagers) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refundConcurrency)

	for _, playerWagers := range wagers {
		for _, w := range playerWagers {
			w := w
			g.Go(func() error {
				res, err := s.wallet.Credit(gctx, wallet.CreditRequest{
					SessionToken:  w.SessionToken,
					WinAmount:     w.Amount,
					Currency:      w.Currency,
					TransactionID: uuid.NewString(),
					PlayerID:      w.PlayerID,
					TenantID:      w.TenantID,
					Type:          wallet.CreditTypeRefund,
					Metadata: map[string]any{
						"reason":        "market_outage",
						"originalRound": roundID,
						"originalBetId": w.TransactionID,
					},
				})
				if err != nil || !res.Success() {
					s.logger.Error().Err(err).
						Str("alert", "critical").
						Str("market", market).
						Str("roundId", roundID).
						Str("playerId", w.PlayerID).
						Str("transactionId", w.TransactionID).
						Float64("amount", w.Amount).
						Msg("breaker: refund failed")
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := s.wagerRepo.DeleteWagers(ctx, market, roundID); err != nil {
		s.logger.Warn().Err(err).Str("market", market).Str("roundId", roundID).Msg("breaker: wager cleanup failed")
	}

	s.logger.Info().Str("market", market).Str("roundId", roundID).Msg("round cancelled, stakes refunded")
}
