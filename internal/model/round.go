package model

// Phase is the state a market's round loop is currently in.
type Phase string

const (
	PhaseBetting      Phase = "BETTING"
	PhaseAccumulation Phase = "ACCUMULATION"
	PhaseDropping     Phase = "DROPPING"
	PhasePayout       Phase = "PAYOUT"
	PhasePaused       Phase = "PAUSED"
)

// Stock is one symbol tracked by the current round. Price and outcome
// fields fill in as the round advances through its phases.
type Stock struct {
	Symbol          string   `json:"symbol"`
	CurrentPrice    *float64 `json:"currentPrice,omitempty"`
	StartPrice      *float64 `json:"startPrice,omitempty"`
	Delta           *float64 `json:"delta,omitempty"`
	MultiplierIndex *int     `json:"multiplierIndex,omitempty"`
	Multiplier      *float64 `json:"multiplier,omitempty"`
}

// RoundState is the authoritative round-state blob for a market. It is
// persisted as a whole on every transition and broadcast to the market
// room after the write lands.
type RoundState struct {
	Phase      Phase   `json:"phase"`
	RoundID    string  `json:"roundId"`
	ServerTime int64   `json:"serverTime"` // epoch ms
	EndTime    int64   `json:"endTime"`    // epoch ms
	Stocks     []Stock `json:"stocks"`
	CanUnbet   bool    `json:"canUnbet"`
	Message    string  `json:"message,omitempty"`
}

// SymbolResult is one symbol's outcome, written at DROPPING entry and
// consumed by the payout pipeline.
type SymbolResult struct {
	Symbol          string  `json:"symbol"`
	Delta           float64 `json:"delta"`
	MultiplierIndex int     `json:"multiplierIndex"`
	Multiplier      float64 `json:"multiplier"`
	Reason          string  `json:"reason"`
}
