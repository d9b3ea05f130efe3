package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinko_backend/internal/model"
)

type stubRepo struct {
	snap *model.Snapshot
}

func (s *stubRepo) GetSnapshot(_ context.Context, _ string) (*model.Snapshot, error) {
	return s.snap, nil
}

func TestProvider_IsFresh(t *testing.T) {
	p := NewProvider(&stubRepo{}, 5*time.Second)

	t.Run("nil snapshot is stale", func(t *testing.T) {
		assert.False(t, p.IsFresh(nil))
	})

	t.Run("recent snapshot is fresh", func(t *testing.T) {
		snap := &model.Snapshot{CapturedAt: time.Now().Add(-time.Second).UnixMilli()}
		assert.True(t, p.IsFresh(snap))
	})

	t.Run("old snapshot is stale", func(t *testing.T) {
		snap := &model.Snapshot{CapturedAt: time.Now().Add(-10 * time.Second).UnixMilli()}
		assert.False(t, p.IsFresh(snap))
	})
}

func TestProvider_GetSnapshot(t *testing.T) {
	want := &model.Snapshot{Symbols: map[string]model.SymbolPrice{"AAPL": {Price: 100}}}
	p := NewProvider(&stubRepo{snap: want}, 5*time.Second)

	got, err := p.GetSnapshot(context.Background(), "NASDAQ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	price, ok := got.Price("AAPL")
	assert.True(t, ok)
	assert.Equal(t, 100.0, price)
}
