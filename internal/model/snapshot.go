package model

// SymbolPrice is one symbol's entry in a market-data snapshot.
type SymbolPrice struct {
	Price float64 `json:"price"`
}

// Snapshot is a point-in-time view of a market's symbol prices as
// written by the market-data ingester.
type Snapshot struct {
	Symbols    map[string]SymbolPrice `json:"symbols"`
	CapturedAt int64                  `json:"capturedAt"` // epoch ms
}

// Price returns the price for a symbol and whether it is present.
func (s *Snapshot) Price(symbol string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	p, ok := s.Symbols[symbol]
	return p.Price, ok
}
