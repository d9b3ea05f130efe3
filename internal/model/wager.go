package model

// Wager is a player's stake on one or more symbols within a round.
// Appended to the round's wager hash after a successful wallet debit,
// removable only while the round is still in BETTING.
type Wager struct {
	TransactionID string   `json:"transactionId"`
	PlayerID      string   `json:"playerId"`
	TenantID      string   `json:"tenantId,omitempty"`
	SessionToken  string   `json:"sessionToken"`
	Currency      string   `json:"currency"`
	Amount        float64  `json:"amount"`
	Symbols       []string `json:"symbols"`
	PlacedAt      int64    `json:"placedAt"` // epoch ms
}

// BetResult is the ledger's reply to a successful place_bet.
type BetResult struct {
	Status        string  `json:"status"`
	NewBalance    float64 `json:"newBalance"`
	RoundID       string  `json:"roundId"`
	TransactionID string  `json:"transactionId"`
}

// CancelResult is the ledger's reply to a successful cancel_bet.
type CancelResult struct {
	Status       string  `json:"status"`
	RefundAmount float64 `json:"refundAmount"`
	NewBalance   float64 `json:"newBalance"`
}

// BetBreakdown is the per-wager line of the aggregated payout event.
type BetBreakdown struct {
	BetID      string   `json:"betId"`
	Symbols    []string `json:"symbols"`
	Wager      float64  `json:"wager"`
	Payout     float64  `json:"payout"`
	Multiplier float64  `json:"multiplier"`
}

// PlayerPayout is the aggregated round outcome for one player.
type PlayerPayout struct {
	RoundID     string         `json:"roundId"`
	Currency    string         `json:"currency"`
	TotalWager  float64        `json:"totalWager"`
	TotalPayout float64        `json:"totalPayout"`
	NetProfit   float64        `json:"netProfit"`
	Bets        []BetBreakdown `json:"bets"`
}
