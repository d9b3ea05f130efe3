// Package wallet is the outbound HTTP client for the platform wallet
// gateway: one debit endpoint, one credit endpoint, both HMAC-signed.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plinko_backend/internal/config"
)

const (
	debitPath  = "/api/transactions/bet"
	creditPath = "/api/transactions/credit"

	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"

	CreditTypeWin    = "win"
	CreditTypeRefund = "refund"
)

type DebitRequest struct {
	SessionToken  string         `json:"sessionToken"`
	BetAmount     float64        `json:"betAmount"`
	Currency      string         `json:"currency"`
	TransactionID string         `json:"transactionId"`
	PlayerID      string         `json:"playerId,omitempty"`
	TenantID      string         `json:"tenantId,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type CreditRequest struct {
	SessionToken  string         `json:"sessionToken"`
	WinAmount     float64        `json:"winAmount"`
	Currency      string         `json:"currency"`
	TransactionID string         `json:"transactionId"`
	PlayerID      string         `json:"playerId,omitempty"`
	TenantID      string         `json:"tenantId,omitempty"`
	Type          string         `json:"type,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TxResult is the inner payload of the gateway's response envelope.
type TxResult struct {
	Status     string  `json:"status"`
	NewBalance float64 `json:"newBalance"`
	Message    string  `json:"message,omitempty"`
}

func (t *TxResult) Success() bool {
	return t.Status == StatusSuccess
}

type envelope struct {
	Status string   `json:"status"`
	Data   TxResult `json:"data"`
}

type Client struct {
	baseURL string
	secret  []byte
	http    *http.Client
}

func NewClient(cfg config.WalletConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 200
	transport.MaxIdleConnsPerHost = 200

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL(), "/"),
		secret:  cfg.SignatureSecret(),
		http: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
	}
}

// Debit charges the player's wallet for a bet. A nil error with a FAILED
// status means the wallet rejected the charge (insufficient balance).
func (c *Client) Debit(ctx context.Context, req DebitRequest) (*TxResult, error) {
	return c.post(ctx, debitPath, req)
}

// Credit pays the player's wallet (win or refund). Attempted once; the
// caller decides what a failure means.
func (c *Client) Credit(ctx context.Context, req CreditRequest) (*TxResult, error) {
	return c.post(ctx, creditPath, req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*TxResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode wallet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build wallet request: %w", err)
	}

	ts := time.Now().UnixMilli()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("x-signature", signRequest(c.secret, http.MethodPost, path, body, ts))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read wallet response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wallet %s: status %d: %s", path, resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode wallet response: %w", err)
	}
	return &env.Data, nil
}
