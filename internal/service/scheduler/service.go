// Package scheduler drives the per-market round loops. Each market
// advances BETTING → ACCUMULATION → DROPPING → PAYOUT on a tick-driven
// timer; ticks run only while this instance holds the market's lease,
// and a stale market-data feed trips the circuit breaker into PAUSED.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"plinko_backend/internal/config"
	"plinko_backend/internal/model"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/service"
)

const (
	// Ticks inside a phase re-arm at most this far out, so a takeover by
	// another instance is noticed quickly.
	tickMaxDelay = time.Second

	notLeaderRetry = 5 * time.Second
	unhealthyRetry = 2 * time.Second
	errorRetry     = 5 * time.Second
	noSnapRetry    = time.Second
)

type Service struct {
	cfg         config.GameConfig
	lease       service.LeaseManager
	snapshots   service.SnapshotProvider
	engine      service.DecisionEngine
	payout      service.PayoutPipeline
	stateRepo   repository.RoundStateRepository
	wagerRepo   repository.WagerRepository
	wallet      service.WalletGateway
	broadcaster service.Broadcaster
	logger      zerolog.Logger

	// now is swappable so tests can drive phase expiry.
	now func() time.Time

	bootMS int64
	seq    atomic.Uint64

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	runCtx  context.Context
}

func NewService(
	cfg config.GameConfig,
	leaseMgr service.LeaseManager,
	snapshots service.SnapshotProvider,
	engine service.DecisionEngine,
	payoutPipeline service.PayoutPipeline,
	stateRepo repository.RoundStateRepository,
	wagerRepo repository.WagerRepository,
	gateway service.WalletGateway,
	broadcaster service.Broadcaster,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:         cfg,
		lease:       leaseMgr,
		snapshots:   snapshots,
		engine:      engine,
		payout:      payoutPipeline,
		stateRepo:   stateRepo,
		wagerRepo:   wagerRepo,
		wallet:      gateway,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
		bootMS:      time.Now().UnixMilli(),
		timers:      make(map[string]*time.Timer),
	}
}

// Run arms an immediate first tick for every configured market and
// returns; the loops live on the timers from then on.
func (s *Service) Run(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	for _, market := range s.cfg.Markets() {
		s.logger.Info().Str("market", market).Msg("starting round loop")
		s.arm(market, 0)
	}
}

// Stop cancels every pending tick. In-flight ticks finish on their own.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for market, t := range s.timers {
		t.Stop()
		delete(s.timers, market)
	}
}

// arm schedules the market's next tick, replacing any pending one so
// there is never more than one timer per market.
func (s *Service) arm(market string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.timers[market]; ok {
		prev.Stop()
	}
	s.timers[market] = time.AfterFunc(delay, func() {
		s.arm(market, s.safeTick(market))
	})
}

// safeTick runs one tick and converts every failure mode into a retry
// delay; the loop itself never dies.
func (s *Service) safeTick(market string) (delay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("market", market).Interface("panic", r).Msg("tick panicked")
			delay = errorRetry
		}
	}()

	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return errorRetry
	}

	if !s.lease.AcquireOrExtend(ctx, market) {
		return notLeaderRetry
	}

	snap, err := s.snapshots.GetSnapshot(ctx, market)
	if err != nil {
		s.logger.Warn().Err(err).Str("market", market).Msg("snapshot read failed")
	}
	if !s.snapshots.IsFresh(snap) {
		s.tripBreaker(ctx, market)
		return unhealthyRetry
	}

	d, err := s.tick(ctx, market)
	if err != nil {
		s.logger.Error().Err(err).Str("market", market).Msg("tick failed")
		return errorRetry
	}
	return d
}

// tick advances the market's round loop by at most one transition.
func (s *Service) tick(ctx context.Context, market string) (time.Duration, error) {
	state, err := s.stateRepo.GetRoundState(ctx, market)
	if err != nil {
		return 0, fmt.Errorf("load round state: %w", err)
	}

	if state == nil {
		return s.enterBetting(ctx, market)
	}

	if state.Phase == model.PhasePaused {
		// Feed is healthy again (the breaker gate passed), reopen.
		s.broadcaster.EmitToMarket(market, service.EventMarketStatus, marketStatusPayload{
			Status:    marketStatusOpen,
			Timestamp: s.now().UnixMilli(),
		})
		s.logger.Info().Str("market", market).Msg("market data recovered, reopening")
		return s.enterBetting(ctx, market)
	}

	nowMS := s.now().UnixMilli()
	if nowMS < state.EndTime {
		return clampTick(time.Duration(state.EndTime-nowMS) * time.Millisecond), nil
	}

	switch state.Phase {
	case model.PhaseBetting:
		return s.enterAccumulation(ctx, market, state)
	case model.PhaseAccumulation:
		return s.enterDropping(ctx, market, state)
	case model.PhaseDropping:
		return s.enterPayout(ctx, market, state)
	case model.PhasePayout:
		return s.enterBetting(ctx, market)
	default:
		return 0, fmt.Errorf("unknown phase %q", state.Phase)
	}
}

// writeAndBroadcast persists the blob, then fans it out. The write must
// land first so a reconnecting client never sees a state the store does
// not hold.
func (s *Service) writeAndBroadcast(ctx context.Context, market string, state *model.RoundState) error {
	if err := s.stateRepo.SetRoundState(ctx, market, state); err != nil {
		return err
	}
	s.broadcaster.EmitToMarket(market, service.EventGameState, state)
	return nil
}

func (s *Service) nextRoundID() string {
	return fmt.Sprintf("%d-%d", s.bootMS, s.seq.Add(1))
}

func clampTick(d time.Duration) time.Duration {
	if d > tickMaxDelay {
		return tickMaxDelay
	}
	return d
}
