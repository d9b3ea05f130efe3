package model

// Session is the platform-issued identity attached to a socket. Looked
// up by token in the session store; never minted locally.
type Session struct {
	Token    string `json:"-"`
	PlayerID string `json:"playerId"`
	TenantID string `json:"tenantId,omitempty"`
	Currency string `json:"currency"`
}
