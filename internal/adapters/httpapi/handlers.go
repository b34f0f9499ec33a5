package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradejournal/internal/analytics"
	"tradejournal/internal/app"
	"tradejournal/internal/domain"
	"tradejournal/internal/lifecycle"
	"tradejournal/internal/ports"
)

// JournalAPI is the slice of the application service the HTTP layer consumes.
type JournalAPI interface {
	CreateAccount(ctx context.Context, name string, startingBalance *decimal.Decimal) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	Symbols() []string

	CreateTrade(ctx context.Context, req app.CreateTradeRequest) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, id int64, req app.UpdateTradeRequest) (*domain.Trade, error)
	ChangeStatus(ctx context.Context, id int64, req app.StatusChangeRequest) (*domain.Trade, error)
	DeleteTrade(ctx context.Context, id int64) error
	GetTrade(ctx context.Context, id int64) (*domain.Trade, error)
	ListTrades(ctx context.Context, accountID int64) ([]*domain.Trade, error)
	AccountStats(ctx context.Context, accountID int64) (*analytics.Stats, error)
}

// Handler holds the HTTP handler set.
type Handler struct {
	svc    JournalAPI
	logger ports.Logger
}

// NewHandler creates the handler set.
func NewHandler(svc JournalAPI, logger ports.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// --- request/response payloads ---

type createAccountRequest struct {
	Name            string           `json:"name"`
	StartingBalance *decimal.Decimal `json:"startingBalance,omitempty"`
}

type createTradeRequest struct {
	AccountID   int64           `json:"accountId"`
	Symbol      string          `json:"symbol"`
	Direction   string          `json:"direction"`
	EntryPrice  decimal.Decimal `json:"entryPrice"`
	StopLoss    decimal.Decimal `json:"stopLoss"`
	TakeProfit  decimal.Decimal `json:"takeProfit"`
	AccountSize decimal.Decimal `json:"accountSize"`
	RiskPercent decimal.Decimal `json:"riskPercent"`
	Notes       string          `json:"notes"`
}

type updateTradeRequest struct {
	EntryPrice  *decimal.Decimal `json:"entryPrice,omitempty"`
	StopLoss    *decimal.Decimal `json:"stopLoss,omitempty"`
	TakeProfit  *decimal.Decimal `json:"takeProfit,omitempty"`
	AccountSize *decimal.Decimal `json:"accountSize,omitempty"`
	RiskPercent *decimal.Decimal `json:"riskPercent,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type changeStatusRequest struct {
	Status      string           `json:"status"`
	ActualEntry *decimal.Decimal `json:"actualEntry,omitempty"`
	ActualExit  *decimal.Decimal `json:"actualExit,omitempty"`
	ManualPnL   *decimal.Decimal `json:"manualPnl,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- handlers ---

// CreateAccount handles POST /accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acc, err := h.svc.CreateAccount(r.Context(), req.Name, req.StartingBalance)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// GetAccount handles GET /accounts/{id}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	acc, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ListAccounts handles GET /accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// AccountStats handles GET /accounts/{id}/stats.
func (h *Handler) AccountStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.AccountStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListInstruments handles GET /instruments.
func (h *Handler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Symbols())
}

// CreateTrade handles POST /trades.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := h.svc.CreateTrade(r.Context(), app.CreateTradeRequest{
		AccountID:   req.AccountID,
		Symbol:      req.Symbol,
		Direction:   domain.Direction(req.Direction),
		EntryPrice:  req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		AccountSize: req.AccountSize,
		RiskPercent: req.RiskPercent,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

// GetTrade handles GET /trades/{id}.
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trade, err := h.svc.GetTrade(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// ListTrades handles GET /accounts/{id}/trades.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trades, err := h.svc.ListTrades(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// UpdateTrade handles PUT /trades/{id}.
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := h.svc.UpdateTrade(r.Context(), id, app.UpdateTradeRequest{
		EntryPrice:  req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		AccountSize: req.AccountSize,
		RiskPercent: req.RiskPercent,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// ChangeStatus handles POST /trades/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := domain.TradeStatus(req.Status)
	if !target.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown status '"+req.Status+"'")
		return
	}
	trade, err := h.svc.ChangeStatus(r.Context(), id, app.StatusChangeRequest{
		Target:      target,
		ActualEntry: req.ActualEntry,
		ActualExit:  req.ActualExit,
		ManualPnL:   req.ManualPnL,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /trades/{id}.
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTrade(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *lifecycle.InvalidTransitionError
	switch {
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrAccountNotFound),
		errors.Is(err, ports.ErrTradeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transitionErr),
		errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, ports.ErrTradeClosed),
		errors.Is(err, ports.ErrUnknownDirection):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(r.Context(), err, "Unhandled service error", map[string]interface{}{"path": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
