package repository

import (
	"context"
	"time"

	"plinko_backend/internal/model"
)

// RoundStateRepository persists the authoritative round-state blob and
// the round-scoped ancillary keys (symbol list, start snapshot, results).
// Absent keys read back as (nil, nil).
type RoundStateRepository interface {
	GetRoundState(ctx context.Context, market string) (*model.RoundState, error)
	SetRoundState(ctx context.Context, market string, state *model.RoundState) error

	SetRoundStocks(ctx context.Context, market, roundID string, symbols []string) error
	SetStartSnapshot(ctx context.Context, market, roundID string, snap *model.Snapshot) error
	GetStartSnapshot(ctx context.Context, market, roundID string) (*model.Snapshot, error)
	SetResults(ctx context.Context, market, roundID string, results []model.SymbolResult) error
	GetResults(ctx context.Context, market, roundID string) ([]model.SymbolResult, error)
	DeleteResults(ctx context.Context, market, roundID string) error
}

// WagerRepository is the round-scoped wager hash. Append and remove run
// as store-side scripts so the read-modify-write is atomic across
// processes.
type WagerRepository interface {
	AppendWager(ctx context.Context, market, roundID string, wager model.Wager) error
	RemoveWager(ctx context.Context, market, roundID, playerID, transactionID string) (*model.Wager, error)
	GetAllWagers(ctx context.Context, market, roundID string) (map[string][]model.Wager, error)
	DeleteWagers(ctx context.Context, market, roundID string) error
}

// RTPRepository holds the durable per-market RTP counters.
type RTPRepository interface {
	IncrTotalBet(ctx context.Context, market string, amount float64) error
	IncrTotalWon(ctx context.Context, market string, amount float64) error
	IncrPlayCount(ctx context.Context, market string) error
	GetCounters(ctx context.Context, market string) (totalBet, totalWon float64, playCount int64, err error)
	Delete(ctx context.Context, market string) error
}

// LeaseRepository implements the atomic acquire-or-extend compare-and-set
// for per-market leases.
type LeaseRepository interface {
	AcquireOrExtend(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
}

// SessionRepository reads platform sessions by token.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*model.Session, error)
}

// SnapshotRepository reads the latest market-data snapshot for a market
// as written by the out-of-process ingester.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, market string) (*model.Snapshot, error)
}
