package config

import (
	"time"

	"github.com/joho/godotenv"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

type HTTPConfig interface {
	Address() string
}

type RedisConfig interface {
	Addr() string
	Password() string
	DB() int
}

type WalletConfig interface {
	BaseURL() string
	Timeout() time.Duration
	SignatureSecret() []byte
}

// GameConfig is the plinko game math and round timing for every market
// this instance runs loops for.
type GameConfig interface {
	Markets() []string
	Multipliers() []float64
	StockCount() int
	BetTime() time.Duration
	DeltaTime() time.Duration
	DropTime() time.Duration
	PayoutTime() time.Duration
	DesiredRTP() float64
	ThresholdPlayCount() int64
	LimitPlayCount() int64
	SnapshotFreshness() time.Duration
}
