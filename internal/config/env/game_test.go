package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameConfigFromYAML_Defaults(t *testing.T) {
	t.Setenv("MARKETS", "NASDAQ")

	cfg, err := NewGameConfigFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"NASDAQ"}, cfg.Markets())
	assert.Equal(t, []float64{4, 2, 1.4, 0, 0.5, 0, 1.2, 1.5, 5}, cfg.Multipliers())
	assert.Equal(t, 3, cfg.StockCount())
	assert.Equal(t, 20*time.Second, cfg.BetTime())
	assert.Equal(t, 10*time.Second, cfg.DeltaTime())
	assert.Equal(t, 10*time.Second, cfg.DropTime())
	assert.Equal(t, 5*time.Second, cfg.PayoutTime())
	assert.Equal(t, 96.5, cfg.DesiredRTP())
	assert.Equal(t, int64(100), cfg.ThresholdPlayCount())
	assert.Equal(t, int64(100000), cfg.LimitPlayCount())
	assert.Equal(t, 5*time.Second, cfg.SnapshotFreshness())
}

func TestNewGameConfigFromYAML_FileAndEnvLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
game:
  markets: [NASDAQ, CRYPTO]
  multipliers: [2, 0, 3]
  stock_count: 2
  bet_time_ms: 15000
  desired_rtp: 95
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	// Env wins over file.
	t.Setenv("PLINKO_BET_TIME_MS", "12000")
	t.Setenv("DESIRED_RTP", "97.5")

	cfg, err := NewGameConfigFromYAML(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"NASDAQ", "CRYPTO"}, cfg.Markets())
	assert.Equal(t, []float64{2, 0, 3}, cfg.Multipliers())
	assert.Equal(t, 2, cfg.StockCount())
	assert.Equal(t, 12*time.Second, cfg.BetTime())
	assert.Equal(t, 97.5, cfg.DesiredRTP())
	// File value that env left alone.
	assert.Equal(t, 10*time.Second, cfg.DeltaTime())
}

func TestNewGameConfigFromYAML_Validation(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.yaml")

	t.Run("no markets", func(t *testing.T) {
		_, err := NewGameConfigFromYAML(missing)
		assert.Error(t, err)
	})

	t.Run("bad multipliers env", func(t *testing.T) {
		t.Setenv("MARKETS", "NASDAQ")
		t.Setenv("PLINKO_MULTIPLIERS", "4,nope,2")
		_, err := NewGameConfigFromYAML(missing)
		assert.Error(t, err)
	})

	t.Run("single multiplier rejected", func(t *testing.T) {
		t.Setenv("MARKETS", "NASDAQ")
		t.Setenv("PLINKO_MULTIPLIERS", "4")
		_, err := NewGameConfigFromYAML(missing)
		assert.Error(t, err)
	})
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"NASDAQ", "CRYPTO"}, splitCSV(" NASDAQ , CRYPTO ,"))
	assert.Empty(t, splitCSV(" , "))
}
