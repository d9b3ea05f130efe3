package service

import (
	"context"

	"plinko_backend/internal/model"
	"plinko_backend/internal/wallet"
)

// Realtime events the engine produces.
const (
	EventGameState    = "game:state"
	EventGamePayout   = "game:payout"
	EventGameError    = "game:error"
	EventMarketStatus = "market-status"
)

// LeaseManager gates each market loop on a distributed lease. A store
// failure reads as "not leader".
type LeaseManager interface {
	AcquireOrExtend(ctx context.Context, market string) bool
	InstanceID() string
}

// SnapshotProvider serves the latest market-data snapshot for a market.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, market string) (*model.Snapshot, error)
	IsFresh(snap *model.Snapshot) bool
}

// RTPTracker maintains the durable per-market RTP counters. All methods
// swallow store errors: a telemetry glitch must never fail a round.
type RTPTracker interface {
	RecordBet(ctx context.Context, market string, amount float64)
	RecordWin(ctx context.Context, market string, amount float64)
	GetMetrics(ctx context.Context, market string) model.RTPMetrics
	HasEnoughData(metrics model.RTPMetrics) bool
	Reset(ctx context.Context, market string)
}

// DecisionEngine selects a multiplier slot per symbol from its price
// delta and the market's current RTP position.
type DecisionEngine interface {
	Decide(ctx context.Context, market string, deltas []model.SymbolDelta) []model.SymbolResult
}

// WagerLedger accepts and cancels player bets for the current round.
type WagerLedger interface {
	PlaceBet(ctx context.Context, session *model.Session, market string, amount float64, symbols []string) (*model.BetResult, error)
	CancelBet(ctx context.Context, session *model.Session, market, transactionID string) (*model.CancelResult, error)
}

// PayoutPipeline settles one finished round. Runs detached from the
// scheduler tick.
type PayoutPipeline interface {
	Process(ctx context.Context, market, roundID string)
}

// WalletGateway is the external debit/credit pair.
type WalletGateway interface {
	Debit(ctx context.Context, req wallet.DebitRequest) (*wallet.TxResult, error)
	Credit(ctx context.Context, req wallet.CreditRequest) (*wallet.TxResult, error)
}

// Broadcaster fans events out to the realtime rooms.
type Broadcaster interface {
	EmitToMarket(market, event string, payload any)
	EmitToPlayer(playerID, event string, payload any)
}
