package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinko_backend/internal/gameerr"
	"plinko_backend/internal/model"
	"plinko_backend/internal/wallet"
)

type fakeStateRepo struct {
	state *model.RoundState
	err   error
}

func (f *fakeStateRepo) GetRoundState(_ context.Context, _ string) (*model.RoundState, error) {
	return f.state, f.err
}
func (f *fakeStateRepo) SetRoundState(_ context.Context, _ string, _ *model.RoundState) error {
	return nil
}
func (f *fakeStateRepo) SetRoundStocks(_ context.Context, _, _ string, _ []string) error { return nil }
func (f *fakeStateRepo) SetStartSnapshot(_ context.Context, _, _ string, _ *model.Snapshot) error {
	return nil
}
func (f *fakeStateRepo) GetStartSnapshot(_ context.Context, _, _ string) (*model.Snapshot, error) {
	return nil, nil
}
func (f *fakeStateRepo) SetResults(_ context.Context, _, _ string, _ []model.SymbolResult) error {
	return nil
}
func (f *fakeStateRepo) GetResults(_ context.Context, _, _ string) ([]model.SymbolResult, error) {
	return nil, nil
}
func (f *fakeStateRepo) DeleteResults(_ context.Context, _, _ string) error { return nil }

type fakeWagerRepo struct {
	appended  []model.Wager
	appendErr error
	removed   *model.Wager
	removeErr error
}

func (f *fakeWagerRepo) AppendWager(_ context.Context, _, _ string, w model.Wager) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, w)
	return nil
}

func (f *fakeWagerRepo) RemoveWager(_ context.Context, _, _, _, _ string) (*model.Wager, error) {
	return f.removed, f.removeErr
}

func (f *fakeWagerRepo) GetAllWagers(_ context.Context, _, _ string) (map[string][]model.Wager, error) {
	return nil, nil
}

func (f *fakeWagerRepo) DeleteWagers(_ context.Context, _, _ string) error { return nil }

type fakeWallet struct {
	debitRes  *wallet.TxResult
	debitErr  error
	creditRes *wallet.TxResult
	creditErr error

	debits  []wallet.DebitRequest
	credits []wallet.CreditRequest
}

func (f *fakeWallet) Debit(_ context.Context, req wallet.DebitRequest) (*wallet.TxResult, error) {
	f.debits = append(f.debits, req)
	return f.debitRes, f.debitErr
}

func (f *fakeWallet) Credit(_ context.Context, req wallet.CreditRequest) (*wallet.TxResult, error) {
	f.credits = append(f.credits, req)
	return f.creditRes, f.creditErr
}

type fakeTracker struct {
	bets []float64
	wins []float64
}

func (f *fakeTracker) RecordBet(_ context.Context, _ string, amount float64) {
	f.bets = append(f.bets, amount)
}
func (f *fakeTracker) RecordWin(_ context.Context, _ string, amount float64) {
	f.wins = append(f.wins, amount)
}
func (f *fakeTracker) GetMetrics(_ context.Context, _ string) model.RTPMetrics {
	return model.RTPMetrics{}
}
func (f *fakeTracker) HasEnoughData(_ model.RTPMetrics) bool { return false }
func (f *fakeTracker) Reset(_ context.Context, _ string)     {}

func bettingState() *model.RoundState {
	return &model.RoundState{Phase: model.PhaseBetting, RoundID: "r-1", CanUnbet: true}
}

func testSession() *model.Session {
	return &model.Session{Token: "tok-1", PlayerID: "p-1", TenantID: "t-1", Currency: "USD"}
}

func okResult() *wallet.TxResult {
	return &wallet.TxResult{Status: wallet.StatusSuccess, NewBalance: 900}
}

func failedResult() *wallet.TxResult {
	return &wallet.TxResult{Status: wallet.StatusFailed, Message: "insufficient funds"}
}

func TestPlaceBet_Accepted(t *testing.T) {
	wagers := &fakeWagerRepo{}
	gateway := &fakeWallet{debitRes: okResult()}
	tracker := &fakeTracker{}
	svc := NewService(&fakeStateRepo{state: bettingState()}, wagers, gateway, tracker, zerolog.Nop())

	result, err := svc.PlaceBet(context.Background(), testSession(), "NASDAQ", 100, []string{"AAPL", "TSLA"})
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, "r-1", result.RoundID)
	assert.Equal(t, 900.0, result.NewBalance)
	assert.NotEmpty(t, result.TransactionID)

	require.Len(t, wagers.appended, 1)
	assert.Equal(t, result.TransactionID, wagers.appended[0].TransactionID)
	assert.Equal(t, []string{"AAPL", "TSLA"}, wagers.appended[0].Symbols)
	assert.Equal(t, []float64{100}, tracker.bets)

	require.Len(t, gateway.debits, 1)
	assert.Equal(t, "tok-1", gateway.debits[0].SessionToken)
	assert.Equal(t, 100.0, gateway.debits[0].BetAmount)
}

func TestPlaceBet_Validation(t *testing.T) {
	svc := NewService(&fakeStateRepo{state: bettingState()}, &fakeWagerRepo{}, &fakeWallet{}, &fakeTracker{}, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  float64
		symbols []string
		wantErr error
	}{
		{"zero amount", 0, []string{"AAPL"}, gameerr.ErrInvalidAmount},
		{"negative amount", -5, []string{"AAPL"}, gameerr.ErrInvalidAmount},
		{"no symbols", 10, nil, gameerr.ErrInvalidSelection},
		{"duplicate symbols", 10, []string{"AAPL", "AAPL"}, gameerr.ErrInvalidSelection},
		{"too many symbols", 10, make([]string, 21), gameerr.ErrInvalidSelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceBet(ctx, testSession(), "NASDAQ", tt.amount, tt.symbols)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceBet_BettingClosed(t *testing.T) {
	tests := []struct {
		name  string
		state *model.RoundState
	}{
		{"no round", nil},
		{"accumulation", &model.RoundState{Phase: model.PhaseAccumulation, RoundID: "r-1"}},
		{"paused", &model.RoundState{Phase: model.PhasePaused}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &fakeWallet{debitRes: okResult()}
			svc := NewService(&fakeStateRepo{state: tt.state}, &fakeWagerRepo{}, gateway, &fakeTracker{}, zerolog.Nop())

			_, err := svc.PlaceBet(context.Background(), testSession(), "NASDAQ", 50, []string{"AAPL"})
			assert.ErrorIs(t, err, gameerr.ErrBettingClosed)
			assert.Empty(t, gateway.debits)
		})
	}
}

func TestPlaceBet_InsufficientBalance(t *testing.T) {
	wagers := &fakeWagerRepo{}
	svc := NewService(&fakeStateRepo{state: bettingState()}, wagers, &fakeWallet{debitRes: failedResult()}, &fakeTracker{}, zerolog.Nop())

	_, err := svc.PlaceBet(context.Background(), testSession(), "NASDAQ", 50, []string{"AAPL"})
	assert.ErrorIs(t, err, gameerr.ErrInsufficientBalance)
	assert.Empty(t, wagers.appended)
}

func TestPlaceBet_WalletUnavailable(t *testing.T) {
	gateway := &fakeWallet{debitErr: errors.New("connection refused")}
	svc := NewService(&fakeStateRepo{state: bettingState()}, &fakeWagerRepo{}, gateway, &fakeTracker{}, zerolog.Nop())

	_, err := svc.PlaceBet(context.Background(), testSession(), "NASDAQ", 50, []string{"AAPL"})
	assert.ErrorIs(t, err, gameerr.ErrWalletUnavailable)
}

func TestPlaceBet_AppendFailureSurfaces(t *testing.T) {
	wagers := &fakeWagerRepo{appendErr: errors.New("redis down")}
	svc := NewService(&fakeStateRepo{state: bettingState()}, wagers, &fakeWallet{debitRes: okResult()}, &fakeTracker{}, zerolog.Nop())

	_, err := svc.PlaceBet(context.Background(), testSession(), "NASDAQ", 50, []string{"AAPL"})
	assert.Error(t, err)
}

func TestCancelBet_Refunded(t *testing.T) {
	removed := &model.Wager{TransactionID: "tx-1", PlayerID: "p-1", Currency: "USD", Amount: 40}
	gateway := &fakeWallet{creditRes: &wallet.TxResult{Status: wallet.StatusSuccess, NewBalance: 940}}
	svc := NewService(&fakeStateRepo{state: bettingState()}, &fakeWagerRepo{removed: removed}, gateway, &fakeTracker{}, zerolog.Nop())

	result, err := svc.CancelBet(context.Background(), testSession(), "NASDAQ", "tx-1")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 40.0, result.RefundAmount)
	assert.Equal(t, 940.0, result.NewBalance)

	require.Len(t, gateway.credits, 1)
	assert.Equal(t, wallet.CreditTypeRefund, gateway.credits[0].Type)
	assert.Equal(t, 40.0, gateway.credits[0].WinAmount)
	assert.NotEqual(t, "tx-1", gateway.credits[0].TransactionID)
}

func TestCancelBet_NotFound(t *testing.T) {
	svc := NewService(&fakeStateRepo{state: bettingState()}, &fakeWagerRepo{}, &fakeWallet{}, &fakeTracker{}, zerolog.Nop())

	_, err := svc.CancelBet(context.Background(), testSession(), "NASDAQ", "missing")
	assert.ErrorIs(t, err, gameerr.ErrNotFound)
}

func TestCancelBet_OutsideBetting(t *testing.T) {
	state := &model.RoundState{Phase: model.PhaseDropping, RoundID: "r-1"}
	svc := NewService(&fakeStateRepo{state: state}, &fakeWagerRepo{removed: &model.Wager{}}, &fakeWallet{}, &fakeTracker{}, zerolog.Nop())

	_, err := svc.CancelBet(context.Background(), testSession(), "NASDAQ", "tx-1")
	assert.ErrorIs(t, err, gameerr.ErrBettingClosed)
}

func TestCancelBet_RefundFailure(t *testing.T) {
	removed := &model.Wager{TransactionID: "tx-1", Amount: 40, Currency: "USD"}
	gateway := &fakeWallet{creditErr: errors.New("timeout")}
	svc := NewService(&fakeStateRepo{state: bettingState()}, &fakeWagerRepo{removed: removed}, gateway, &fakeTracker{}, zerolog.Nop())

	_, err := svc.CancelBet(context.Background(), testSession(), "NASDAQ", "tx-1")
	assert.ErrorIs(t, err, gameerr.ErrCancellationFailed)
}
