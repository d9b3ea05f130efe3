// Package snapshot serves market-data snapshots to the round loops. The
// engine never ingests prices itself; it reads what the market-data
// pipeline last wrote and judges freshness.
package snapshot

import (
	"context"
	"time"

	"plinko_backend/internal/model"
	"plinko_backend/internal/repository"
)

type Provider struct {
	repo   repository.SnapshotRepository
	maxAge time.Duration
}

func NewProvider(repo repository.SnapshotRepository, maxAge time.Duration) *Provider {
	return &Provider{
		repo:   repo,
		maxAge: maxAge,
	}
}

func (p *Provider) GetSnapshot(ctx context.Context, market string) (*model.Snapshot, error) {
	return p.repo.GetSnapshot(ctx, market)
}

// IsFresh reports whether the snapshot exists and was captured within
// the configured freshness window.
func (p *Provider) IsFresh(snap *model.Snapshot) bool {
	if snap == nil {
		return false
	}
	age := time.Since(time.UnixMilli(snap.CapturedAt))
	return age <= p.maxAge
}
