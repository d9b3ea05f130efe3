// Package lease keeps each market loop single-writer across instances.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"plinko_backend/internal/repository"
)

const (
	leaseKeyFmt = "lock:gameloop:%s"

	// TTL outlives a few missed ticks, so a leader that stalls briefly
	// keeps its markets, while a dead one frees them within seconds.
	leaseTTL = 10 * time.Second
)

type Manager struct {
	repo       repository.LeaseRepository
	instanceID string
	logger     zerolog.Logger
}

func NewManager(repo repository.LeaseRepository, logger zerolog.Logger) *Manager {
	return &Manager{
		repo:       repo,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (m *Manager) InstanceID() string {
	return m.instanceID
}

// AcquireOrExtend returns true iff this instance holds the market's
// lease after the call. Any store failure reads as not leader.
func (m *Manager) AcquireOrExtend(ctx context.Context, market string) bool {
	key := fmt.Sprintf(leaseKeyFmt, market)
	held, err := m.repo.AcquireOrExtend(ctx, key, m.instanceID, leaseTTL)
	if err != nil {
		m.logger.Warn().Err(err).Str("market", market).Msg("lease check failed, assuming not leader")
		return false
	}
	return held
}
