package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dir, err := os.MkdirTemp("", "journaldb")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(dir, "test.db"),
		Logger: noopLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestAccount() *domain.Account {
	return &domain.Account{
		Name:      "main",
		Balance:   dec("10000"),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func newTestTrade(accountID int64) *domain.Trade {
	return &domain.Trade{
		Ref:         "b2f6c1d4-0000-4000-8000-000000000001",
		AccountID:   accountID,
		Symbol:      "EUR/USD",
		Direction:   domain.Long,
		EntryPrice:  dec("1.10000"),
		StopLoss:    dec("1.09800"),
		TakeProfit:  dec("1.10400"),
		AccountSize: dec("10000"),
		RiskPercent: dec("2"),
		Planned: domain.CalculatedResult{
			RiskAmount:      dec("200.00"),
			LotSize:         dec("1.0000"),
			PotentialProfit: dec("400.00"),
			PotentialLoss:   dec("200.00"),
			ProfitPips:      dec("40"),
			LossPips:        dec("20"),
			RiskRewardRatio: dec("2.00"),
		},
		Status:    domain.StatusPlanning,
		Notes:     "breakout setup",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: "ignored.db"})
	assert.Error(t, err)
}

func TestAccountRoundTrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	acc := newTestAccount()
	id, err := repo.CreateAccount(ctx, acc)
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := repo.FindAccountByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, acc.Name, found.Name)
	assert.True(t, found.Balance.Equal(dec("10000")))

	all, err := repo.FindAllAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindAccountByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	found, err := repo.FindAccountByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTradeRoundTrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	acc := newTestAccount()
	accID, err := repo.CreateAccount(ctx, acc)
	require.NoError(t, err)

	trade := newTestTrade(accID)
	id, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := repo.FindTradeByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, trade.Ref, found.Ref)
	assert.Equal(t, domain.Long, found.Direction)
	assert.Equal(t, domain.StatusPlanning, found.Status)
	assert.True(t, found.EntryPrice.Equal(dec("1.10000")))
	assert.True(t, found.Planned.LotSize.Equal(dec("1.0000")))
	assert.True(t, found.Planned.RiskRewardRatio.Equal(dec("2.00")))
	assert.Nil(t, found.ActualExit)
	assert.Nil(t, found.ManualPnL)
	assert.Nil(t, found.Realized)
	assert.False(t, found.BalanceApplied)
	assert.True(t, found.ClosedAt.IsZero())
	assert.Equal(t, "breakout setup", found.Notes)
}

func TestUpdateTrade_PersistsRealizedResult(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)
	trade := newTestTrade(accID)
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	exit := dec("1.10400")
	trade.ActualExit = &exit
	trade.Status = domain.StatusWin
	trade.BalanceApplied = true
	trade.ClosedAt = time.Now().UTC().Truncate(time.Second)
	trade.Realized = &domain.RealizedResult{
		PnL:                  dec("400.00"),
		Pips:                 dec("40"),
		RiskRewardRatio:      dec("2.00"),
		AccountImpactPercent: dec("4.00"),
	}
	require.NoError(t, repo.UpdateTrade(ctx, trade))

	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Realized)
	assert.True(t, found.Realized.PnL.Equal(dec("400.00")))
	assert.True(t, found.Realized.Pips.Equal(dec("40")))
	assert.False(t, found.Realized.Manual)
	assert.True(t, found.BalanceApplied)
	require.NotNil(t, found.ActualExit)
	assert.True(t, found.ActualExit.Equal(dec("1.10400")))
	assert.False(t, found.ClosedAt.IsZero())
}

func TestUpdateTrade_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	trade := newTestTrade(1)
	trade.ID = 99
	err := repo.UpdateTrade(context.Background(), trade)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCommitTransition_AppliesDeltaAtomically(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)
	trade := newTestTrade(accID)
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	trade.Status = domain.StatusWin
	trade.BalanceApplied = true
	trade.Realized = &domain.RealizedResult{PnL: dec("400.00")}
	delta := &domain.BalanceDelta{AccountID: accID, Amount: dec("400.00")}

	require.NoError(t, repo.CommitTransition(ctx, trade, delta))

	acc, err := repo.FindAccountByID(ctx, accID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(dec("10400")), "balance: got %s", acc.Balance)

	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWin, found.Status)
	assert.True(t, found.BalanceApplied)
}

func TestCommitTransition_MissingAccountRollsBack(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)
	trade := newTestTrade(accID)
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	trade.Status = domain.StatusWin
	delta := &domain.BalanceDelta{AccountID: 999, Amount: dec("400.00")}
	err = repo.CommitTransition(ctx, trade, delta)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// The trade update inside the failed transaction must not stick.
	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlanning, found.Status)
}

func TestCommitTransition_NilDeltaLeavesBalance(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)
	trade := newTestTrade(accID)
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	trade.Status = domain.StatusOpen
	require.NoError(t, repo.CommitTransition(ctx, trade, nil))

	acc, err := repo.FindAccountByID(ctx, accID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(dec("10000")))
}

func TestDeleteTrade_WithReversalDelta(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)
	trade := newTestTrade(accID)
	_, err = repo.CreateTrade(ctx, trade)
	require.NoError(t, err)

	trade.Status = domain.StatusWin
	trade.BalanceApplied = true
	trade.Realized = &domain.RealizedResult{PnL: dec("400.00")}
	require.NoError(t, repo.CommitTransition(ctx, trade, &domain.BalanceDelta{AccountID: accID, Amount: dec("400.00")}))

	require.NoError(t, repo.DeleteTrade(ctx, trade, &domain.BalanceDelta{AccountID: accID, Amount: dec("-400.00")}))

	found, err := repo.FindTradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	acc, err := repo.FindAccountByID(ctx, accID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(dec("10000")), "balance: got %s", acc.Balance)
}

func TestDeleteTrade_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	trade := newTestTrade(1)
	trade.ID = 77
	err := repo.DeleteTrade(context.Background(), trade, nil)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestFindTradesByAccount_NewestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	accID, err := repo.CreateAccount(ctx, newTestAccount())
	require.NoError(t, err)

	older := newTestTrade(accID)
	older.Ref = "b2f6c1d4-0000-4000-8000-000000000002"
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	_, err = repo.CreateTrade(ctx, older)
	require.NoError(t, err)

	newer := newTestTrade(accID)
	newer.Ref = "b2f6c1d4-0000-4000-8000-000000000003"
	_, err = repo.CreateTrade(ctx, newer)
	require.NoError(t, err)

	trades, err := repo.FindTradesByAccount(ctx, accID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, newer.Ref, trades[0].Ref)
	assert.Equal(t, older.Ref, trades[1].Ref)
}
