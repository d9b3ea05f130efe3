package model

// RTPMetrics is a read of the per-market RTP counters.
type RTPMetrics struct {
	TotalBet   float64 `json:"totalBet"`
	TotalWon   float64 `json:"totalWon"`
	PlayCount  int64   `json:"playCount"`
	CurrentRTP float64 `json:"currentRTP"` // totalWon/totalBet * 100, 0 when no bets yet
}

// SymbolDelta is a symbol's percentage price change between the start
// and end snapshots of a round.
type SymbolDelta struct {
	Symbol string
	Delta  float64
}
