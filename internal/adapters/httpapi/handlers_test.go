package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/analytics"
	"tradejournal/internal/app"
	"tradejournal/internal/domain"
	"tradejournal/internal/lifecycle"
	"tradejournal/internal/ports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockJournal stubs JournalAPI; each field overrides one method.
type mockJournal struct {
	createAccountFn func(ctx context.Context, name string, startingBalance *decimal.Decimal) (*domain.Account, error)
	getAccountFn    func(ctx context.Context, id int64) (*domain.Account, error)
	createTradeFn   func(ctx context.Context, req app.CreateTradeRequest) (*domain.Trade, error)
	changeStatusFn  func(ctx context.Context, id int64, req app.StatusChangeRequest) (*domain.Trade, error)
	deleteTradeFn   func(ctx context.Context, id int64) error
}

func (m *mockJournal) CreateAccount(ctx context.Context, name string, startingBalance *decimal.Decimal) (*domain.Account, error) {
	return m.createAccountFn(ctx, name, startingBalance)
}

func (m *mockJournal) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return m.getAccountFn(ctx, id)
}

func (m *mockJournal) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return nil, nil
}

func (m *mockJournal) Symbols() []string {
	return []string{"EUR/USD", "XAUUSD"}
}

func (m *mockJournal) CreateTrade(ctx context.Context, req app.CreateTradeRequest) (*domain.Trade, error) {
	return m.createTradeFn(ctx, req)
}

func (m *mockJournal) UpdateTrade(ctx context.Context, id int64, req app.UpdateTradeRequest) (*domain.Trade, error) {
	return nil, nil
}

func (m *mockJournal) ChangeStatus(ctx context.Context, id int64, req app.StatusChangeRequest) (*domain.Trade, error) {
	return m.changeStatusFn(ctx, id, req)
}

func (m *mockJournal) DeleteTrade(ctx context.Context, id int64) error {
	return m.deleteTradeFn(ctx, id)
}

func (m *mockJournal) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	return nil, nil
}

func (m *mockJournal) ListTrades(ctx context.Context, accountID int64) ([]*domain.Trade, error) {
	return nil, nil
}

func (m *mockJournal) AccountStats(ctx context.Context, accountID int64) (*analytics.Stats, error) {
	return nil, nil
}

func newTestServer(svc JournalAPI) http.Handler {
	return NewServer(":0", svc, noopLogger{}).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	router := newTestServer(&mockJournal{})

	rec := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListInstruments(t *testing.T) {
	router := newTestServer(&mockJournal{})

	rec := doJSON(t, router, http.MethodGet, "/instruments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var symbols []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &symbols))
	assert.Equal(t, []string{"EUR/USD", "XAUUSD"}, symbols)
}

func TestCreateAccount(t *testing.T) {
	svc := &mockJournal{
		createAccountFn: func(ctx context.Context, name string, startingBalance *decimal.Decimal) (*domain.Account, error) {
			require.Equal(t, "main", name)
			require.NotNil(t, startingBalance)
			return &domain.Account{ID: 1, Name: name, Balance: *startingBalance}, nil
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodPost, "/accounts", map[string]interface{}{
		"name":            "main",
		"startingBalance": "5000",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAccount_InvalidBody(t *testing.T) {
	router := newTestServer(&mockJournal{})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAccount_NotFound(t *testing.T) {
	svc := &mockJournal{
		getAccountFn: func(ctx context.Context, id int64) (*domain.Account, error) {
			return nil, fmt.Errorf("account %d: %w", id, ports.ErrAccountNotFound)
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodGet, "/accounts/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAccount_InvalidID(t *testing.T) {
	router := newTestServer(&mockJournal{})

	rec := doJSON(t, router, http.MethodGet, "/accounts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTrade_PassesRequestThrough(t *testing.T) {
	var got app.CreateTradeRequest
	svc := &mockJournal{
		createTradeFn: func(ctx context.Context, req app.CreateTradeRequest) (*domain.Trade, error) {
			got = req
			return &domain.Trade{ID: 7, Symbol: req.Symbol, Status: domain.StatusPlanning}, nil
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodPost, "/trades", map[string]interface{}{
		"accountId":   1,
		"symbol":      "EUR/USD",
		"direction":   "long",
		"entryPrice":  "1.10000",
		"stopLoss":    "1.09800",
		"takeProfit":  "1.10400",
		"riskPercent": "2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, int64(1), got.AccountID)
	assert.Equal(t, domain.Long, got.Direction)
	assert.True(t, got.EntryPrice.Equal(dec("1.10000")))
	assert.True(t, got.RiskPercent.Equal(dec("2")))
}

func TestChangeStatus_TransitionErrorMapsTo422(t *testing.T) {
	svc := &mockJournal{
		changeStatusFn: func(ctx context.Context, id int64, req app.StatusChangeRequest) (*domain.Trade, error) {
			return nil, &lifecycle.InvalidTransitionError{
				From: domain.StatusPlanning, To: domain.StatusWin,
				Reason: "neither an actual exit price nor a manual P&L is set",
			}
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodPost, "/trades/1/status", map[string]interface{}{
		"status": "win",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "manual P&L")
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	router := newTestServer(&mockJournal{})

	rec := doJSON(t, router, http.MethodPost, "/trades/1/status", map[string]interface{}{
		"status": "abandoned",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatus_ForwardsExitFields(t *testing.T) {
	var got app.StatusChangeRequest
	svc := &mockJournal{
		changeStatusFn: func(ctx context.Context, id int64, req app.StatusChangeRequest) (*domain.Trade, error) {
			got = req
			return &domain.Trade{ID: id, Status: req.Target}, nil
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodPost, "/trades/3/status", map[string]interface{}{
		"status":     "win",
		"actualExit": "1.10400",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.StatusWin, got.Target)
	require.NotNil(t, got.ActualExit)
	assert.True(t, got.ActualExit.Equal(dec("1.10400")))
	assert.Nil(t, got.ManualPnL)
}

func TestDeleteTrade(t *testing.T) {
	var deleted int64
	svc := &mockJournal{
		deleteTradeFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodDelete, "/trades/5", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), deleted)
}

func TestDeleteTrade_NotFound(t *testing.T) {
	svc := &mockJournal{
		deleteTradeFn: func(ctx context.Context, id int64) error {
			return fmt.Errorf("trade %d: %w", id, ports.ErrTradeNotFound)
		},
	}
	router := newTestServer(svc)

	rec := doJSON(t, router, http.MethodDelete, "/trades/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
