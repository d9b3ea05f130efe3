package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"plinko_backend/internal/config"
)

const (
	marketsEnvName            = "MARKETS"
	multipliersEnvName        = "PLINKO_MULTIPLIERS"
	stockCountEnvName         = "PLINKO_STOCK_COUNT"
	betTimeEnvName            = "PLINKO_BET_TIME_MS"
	deltaTimeEnvName          = "PLINKO_DELTA_TIME_MS"
	dropTimeEnvName           = "PLINKO_DROP_TIME_MS"
	payoutTimeEnvName         = "PLINKO_PAYOUT_TIME_MS"
	desiredRTPEnvName         = "DESIRED_RTP"
	thresholdPlaycountEnvName = "THRESHOLD_PLAYCOUNT"
	limitPlaycountEnvName     = "LIMIT_PLAYCOUNT"
	snapshotFreshnessEnvName  = "SNAPSHOT_FRESHNESS_SECONDS"
)

type gameConfig struct {
	markets            []string
	multipliers        []float64
	stockCount         int
	betTime            time.Duration
	deltaTime          time.Duration
	dropTime           time.Duration
	payoutTime         time.Duration
	desiredRTP         float64
	thresholdPlaycount int64
	limitPlaycount     int64
	snapshotFreshness  time.Duration
}

// gameYAML mirrors the optional `game` section of config.yaml.
type gameYAML struct {
	Game struct {
		Markets                  []string  `yaml:"markets"`
		Multipliers              []float64 `yaml:"multipliers"`
		StockCount               int       `yaml:"stock_count"`
		BetTimeMS                int       `yaml:"bet_time_ms"`
		DeltaTimeMS              int       `yaml:"delta_time_ms"`
		DropTimeMS               int       `yaml:"drop_time_ms"`
		PayoutTimeMS             int       `yaml:"payout_time_ms"`
		DesiredRTP               float64   `yaml:"desired_rtp"`
		ThresholdPlaycount       int64     `yaml:"threshold_playcount"`
		LimitPlaycount           int64     `yaml:"limit_playcount"`
		SnapshotFreshnessSeconds int       `yaml:"snapshot_freshness_seconds"`
	} `yaml:"game"`
}

// NewGameConfigFromYAML builds the game config from config.yaml (when
// present) with environment overrides on top. Defaults fill whatever
// neither source provides.
func NewGameConfigFromYAML(path string) (config.GameConfig, error) {
	cfg := &gameConfig{
		multipliers:        []float64{4, 2, 1.4, 0, 0.5, 0, 1.2, 1.5, 5},
		stockCount:         3,
		betTime:            20 * time.Second,
		deltaTime:          10 * time.Second,
		dropTime:           10 * time.Second,
		payoutTime:         5 * time.Second,
		desiredRTP:         96.5,
		thresholdPlaycount: 100,
		limitPlaycount:     100000,
		snapshotFreshness:  5 * time.Second,
	}

	if raw, err := os.ReadFile(path); err == nil {
		var doc gameYAML
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		applyYAML(cfg, doc)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if len(cfg.markets) == 0 {
		return nil, errors.New("no markets configured")
	}
	if len(cfg.multipliers) < 2 {
		return nil, errors.New("at least two multipliers required")
	}
	if cfg.stockCount < 1 {
		return nil, errors.New("stock count must be positive")
	}

	return cfg, nil
}

func applyYAML(cfg *gameConfig, doc gameYAML) {
	g := doc.Game
	if len(g.Markets) > 0 {
		cfg.markets = g.Markets
	}
	if len(g.Multipliers) > 0 {
		cfg.multipliers = g.Multipliers
	}
	if g.StockCount > 0 {
		cfg.stockCount = g.StockCount
	}
	if g.BetTimeMS > 0 {
		cfg.betTime = time.Duration(g.BetTimeMS) * time.Millisecond
	}
	if g.DeltaTimeMS > 0 {
		cfg.deltaTime = time.Duration(g.DeltaTimeMS) * time.Millisecond
	}
	if g.DropTimeMS > 0 {
		cfg.dropTime = time.Duration(g.DropTimeMS) * time.Millisecond
	}
	if g.PayoutTimeMS > 0 {
		cfg.payoutTime = time.Duration(g.PayoutTimeMS) * time.Millisecond
	}
	if g.DesiredRTP > 0 {
		cfg.desiredRTP = g.DesiredRTP
	}
	if g.ThresholdPlaycount > 0 {
		cfg.thresholdPlaycount = g.ThresholdPlaycount
	}
	if g.LimitPlaycount > 0 {
		cfg.limitPlaycount = g.LimitPlaycount
	}
	if g.SnapshotFreshnessSeconds > 0 {
		cfg.snapshotFreshness = time.Duration(g.SnapshotFreshnessSeconds) * time.Second
	}
}

func applyEnv(cfg *gameConfig) error {
	if raw := os.Getenv(marketsEnvName); len(raw) > 0 {
		cfg.markets = splitCSV(raw)
	}
	if raw := os.Getenv(multipliersEnvName); len(raw) > 0 {
		mults, err := parseMultipliers(raw)
		if err != nil {
			return err
		}
		cfg.multipliers = mults
	}
	if err := envInt(stockCountEnvName, &cfg.stockCount); err != nil {
		return err
	}
	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{betTimeEnvName, &cfg.betTime},
		{deltaTimeEnvName, &cfg.deltaTime},
		{dropTimeEnvName, &cfg.dropTime},
		{payoutTimeEnvName, &cfg.payoutTime},
	} {
		if err := envMillis(d.name, d.dst); err != nil {
			return err
		}
	}
	if raw := os.Getenv(desiredRTPEnvName); len(raw) > 0 {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid %s", desiredRTPEnvName)
		}
		cfg.desiredRTP = v
	}
	if err := envInt64(thresholdPlaycountEnvName, &cfg.thresholdPlaycount); err != nil {
		return err
	}
	if err := envInt64(limitPlaycountEnvName, &cfg.limitPlaycount); err != nil {
		return err
	}
	if raw := os.Getenv(snapshotFreshnessEnvName); len(raw) > 0 {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid %s", snapshotFreshnessEnvName)
		}
		cfg.snapshotFreshness = time.Duration(secs) * time.Second
	}
	return nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseMultipliers(raw string) ([]float64, error) {
	parts := splitCSV(raw)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid multiplier %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if len(raw) == 0 {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid %s", name)
	}
	*dst = v
	return nil
}

func envInt64(name string, dst *int64) error {
	raw := os.Getenv(name)
	if len(raw) == 0 {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid %s", name)
	}
	*dst = v
	return nil
}

func envMillis(name string, dst *time.Duration) error {
	raw := os.Getenv(name)
	if len(raw) == 0 {
		return nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return fmt.Errorf("invalid %s", name)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

func (cfg *gameConfig) Markets() []string          { return cfg.markets }
func (cfg *gameConfig) Multipliers() []float64     { return cfg.multipliers }
func (cfg *gameConfig) StockCount() int            { return cfg.stockCount }
func (cfg *gameConfig) BetTime() time.Duration     { return cfg.betTime }
func (cfg *gameConfig) DeltaTime() time.Duration   { return cfg.deltaTime }
func (cfg *gameConfig) DropTime() time.Duration    { return cfg.dropTime }
func (cfg *gameConfig) PayoutTime() time.Duration  { return cfg.payoutTime }
func (cfg *gameConfig) DesiredRTP() float64        { return cfg.desiredRTP }
func (cfg *gameConfig) ThresholdPlayCount() int64  { return cfg.thresholdPlaycount }
func (cfg *gameConfig) LimitPlayCount() int64      { return cfg.limitPlaycount }
func (cfg *gameConfig) SnapshotFreshness() time.Duration {
	return cfg.snapshotFreshness
}
