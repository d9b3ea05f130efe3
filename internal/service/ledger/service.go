// Package ledger accepts and cancels wagers for the round currently in
// BETTING. Money moves first (wallet debit/credit), then the wager hash
// follows; the hash itself is only touched through atomic store scripts.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"plinko_backend/internal/gameerr"
	"plinko_backend/internal/model"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/service"
	"plinko_backend/internal/wallet"
)

const (
	gameName   = "plinko"
	maxSymbols = 20

	StatusAccepted  = "ACCEPTED"
	StatusCancelled = "CANCELLED"
)

type Service struct {
	stateRepo repository.RoundStateRepository
	wagerRepo repository.WagerRepository
	wallet    service.WalletGateway
	tracker   service.RTPTracker
	logger    zerolog.Logger
}

func NewService(
	stateRepo repository.RoundStateRepository,
	wagerRepo repository.WagerRepository,
	gateway service.WalletGateway,
	tracker service.RTPTracker,
	logger zerolog.Logger,
) *Service {
	return &Service{
		stateRepo: stateRepo,
		wagerRepo: wagerRepo,
		wallet:    gateway,
		tracker:   tracker,
		logger:    logger,
	}
}

// PlaceBet validates the wager, debits the wallet, then appends the
// wager to the round hash. Once the append lands the bet is visible to
// this round's payout regardless of what happens to the connection.
func (s *Service) PlaceBet(ctx context.Context, session *model.Session, market string, amount float64, symbols []string) (*model.BetResult, error) {
	if amount <= 0 {
		return nil, gameerr.ErrInvalidAmount
	}
	if len(symbols) == 0 || len(symbols) > maxSymbols || len(lo.Uniq(symbols)) != len(symbols) {
		return nil, gameerr.ErrInvalidSelection
	}

	state, err := s.stateRepo.GetRoundState(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("load round state: %w", err)
	}
	if state == nil || state.Phase != model.PhaseBetting {
		return nil, gameerr.ErrBettingClosed
	}

	transactionID := uuid.NewString()
	res, err := s.wallet.Debit(ctx, wallet.DebitRequest{
		SessionToken:  session.Token,
		BetAmount:     amount,
		Currency:      session.Currency,
		TransactionID: transactionID,
		PlayerID:      session.PlayerID,
		TenantID:      session.TenantID,
		Metadata: map[string]any{
			"game":     gameName,
			"roundId":  state.RoundID,
			"symbols":  symbols,
			"tenantId": session.TenantID,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("market", market).
			Str("playerId", session.PlayerID).
			Msg("wallet debit failed")
		return nil, gameerr.ErrWalletUnavailable.WithCause(err)
	}
	if !res.Success() {
		return nil, gameerr.ErrInsufficientBalance
	}

	s.tracker.RecordBet(ctx, market, amount)

	wgr := model.Wager{
		TransactionID: transactionID,
		PlayerID:      session.PlayerID,
		TenantID:      session.TenantID,
		SessionToken:  session.Token,
		Currency:      session.Currency,
		Amount:        amount,
		Symbols:       symbols,
		PlacedAt:      time.Now().UnixMilli(),
	}
	if err := s.wagerRepo.AppendWager(ctx, market, state.RoundID, wgr); err != nil {
		// The debit already happened; an unrecorded wager needs manual
		// reconciliation against the wallet ledger.
		s.logger.Error().Err(err).
			Str("alert", "critical").
			Str("market", market).
			Str("playerId", session.PlayerID).
			Str("transactionId", transactionID).
			Msg("debited wager could not be recorded")
		return nil, fmt.Errorf("record wager: %w", err)
	}

	s.logger.Info().
		Str("market", market).
		Str("roundId", state.RoundID).
		Str("playerId", session.PlayerID).
		Str("transactionId", transactionID).
		Float64("amount", amount).
		Msg("bet placed")

	return &model.BetResult{
		Status:        StatusAccepted,
		NewBalance:    res.NewBalance,
		RoundID:       state.RoundID,
		TransactionID: transactionID,
	}, nil
}

// CancelBet removes the wager from the round hash (atomically, so a
// concurrent payout can never see it again), then refunds the stake.
func (s *Service) CancelBet(ctx context.Context, session *model.Session, market, transactionID string) (*model.CancelResult, error) {
	state, err := s.stateRepo.GetRoundState(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("load round state: %w", err)
	}
	if state == nil || state.Phase != model.PhaseBetting {
		return nil, gameerr.ErrBettingClosed
	}

	removed, err := s.wagerRepo.RemoveWager(ctx, market, state.RoundID, session.PlayerID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("remove wager: %w", err)
	}
	if removed == nil {
		return nil, gameerr.ErrNotFound
	}

	res, err := s.wallet.Credit(ctx, wallet.CreditRequest{
		SessionToken:  session.Token,
		WinAmount:     removed.Amount,
		Currency:      removed.Currency,
		TransactionID: uuid.NewString(),
		PlayerID:      session.PlayerID,
		TenantID:      session.TenantID,
		Type:          wallet.CreditTypeRefund,
		Metadata: map[string]any{
			"reason":        "user_cancel",
			"originalBetId": transactionID,
		},
	})
	if err != nil || !res.Success() {
		// The bet is already gone from the hash, so the player has been
		// debited with nothing at stake.
		s.logger.Error().Err(err).
			Str("alert", "critical").
			Str("market", market).
			Str("playerId", session.PlayerID).
			Str("transactionId", transactionID).
			Msg("cancel refund failed after wager removal")
		return nil, gameerr.ErrCancellationFailed
	}

	s.logger.Info().
		Str("market", market).
		Str("roundId", state.RoundID).
		Str("playerId", session.PlayerID).
		Str("transactionId", transactionID).
		Float64("refund", removed.Amount).
		Msg("bet cancelled")

	return &model.CancelResult{
		Status:       StatusCancelled,
		RefundAmount: removed.Amount,
		NewBalance:   res.NewBalance,
	}, nil
}
