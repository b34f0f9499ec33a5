package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradejournal/config"
	"tradejournal/internal/analytics"
	"tradejournal/internal/domain"
	"tradejournal/internal/instruments"
	"tradejournal/internal/lifecycle"
	"tradejournal/internal/ports"
)

// JournalService orchestrates journal operations: it owns trade creation and
// edits, drives status transitions through the lifecycle engine, and hands
// each resulting trade snapshot plus balance delta to the store as one unit.
type JournalService struct {
	cfg    *config.Config
	logger ports.Logger
	store  ports.JournalStore
	table  *instruments.Table
	engine *lifecycle.Engine

	// mu serializes mutating operations. The reverse-then-reapply sequence on
	// corrections spans two reads and one transactional write; concurrent
	// mutations on the same account would interleave them.
	mu sync.Mutex
}

// NewJournalService creates a new application service instance.
func NewJournalService(
	cfg *config.Config,
	logger ports.Logger,
	store ports.JournalStore,
	table *instruments.Table,
	engine *lifecycle.Engine,
) (*JournalService, error) {
	if cfg == nil || logger == nil || store == nil || table == nil || engine == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}
	return &JournalService{
		cfg:    cfg,
		logger: logger,
		store:  store,
		table:  table,
		engine: engine,
	}, nil
}

// CreateTradeRequest carries the planning inputs for a new trade.
type CreateTradeRequest struct {
	AccountID   int64
	Symbol      string
	Direction   domain.Direction
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	AccountSize decimal.Decimal // Falls back to the account balance when zero
	RiskPercent decimal.Decimal // Falls back to the configured default when zero
	Notes       string
}

// UpdateTradeRequest carries optional planning-field edits; nil fields are
// left unchanged.
type UpdateTradeRequest struct {
	EntryPrice  *decimal.Decimal
	StopLoss    *decimal.Decimal
	TakeProfit  *decimal.Decimal
	AccountSize *decimal.Decimal
	RiskPercent *decimal.Decimal
	Notes       *string
}

// StatusChangeRequest asks for a lifecycle transition, optionally supplying
// exit data for terminal targets. ManualPnL and ActualExit are mutually
// exclusive; whichever is set switches the trade's reporting mode.
type StatusChangeRequest struct {
	Target      domain.TradeStatus
	ActualEntry *decimal.Decimal
	ActualExit  *decimal.Decimal
	ManualPnL   *decimal.Decimal
}

// CreateAccount creates a journal account. A nil starting balance uses the
// configured default.
func (s *JournalService) CreateAccount(ctx context.Context, name string, startingBalance *decimal.Decimal) (*domain.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("account name is required: %w", ports.ErrInvalidRequest)
	}
	balance := s.cfg.StartingBalance
	if startingBalance != nil {
		if startingBalance.IsNegative() {
			return nil, fmt.Errorf("starting balance cannot be negative: %w", ports.ErrInvalidRequest)
		}
		balance = *startingBalance
	}

	acc := &domain.Account{Name: name, Balance: balance, CreatedAt: time.Now().UTC()}
	if _, err := s.store.CreateAccount(ctx, acc); err != nil {
		s.logger.Error(ctx, err, "CreateAccount: failed to save account", map[string]interface{}{"name": name})
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.logger.Info(ctx, "Account created", map[string]interface{}{"accountID": acc.ID, "name": name, "balance": balance})
	return acc, nil
}

// GetAccount retrieves an account by ID.
func (s *JournalService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	acc, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	if acc == nil {
		return nil, fmt.Errorf("account %d: %w", id, ports.ErrAccountNotFound)
	}
	return acc, nil
}

// ListAccounts retrieves all accounts.
func (s *JournalService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.store.FindAllAccounts(ctx)
}

// Symbols lists every instrument the journal can size trades for.
func (s *JournalService) Symbols() []string {
	return s.table.Symbols()
}

// CreateTrade creates a trade in planning status with its planned result
// computed. Incomplete inputs are tolerated; the trade is stored with the
// all-zero result and can be completed by later edits.
func (s *JournalService) CreateTrade(ctx context.Context, req CreateTradeRequest) (*domain.Trade, error) {
	op := "CreateTrade"
	if !req.Direction.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, ports.ErrUnknownDirection)
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("%s: symbol is required: %w", op, ports.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	accountSize := req.AccountSize
	if accountSize.IsZero() {
		accountSize = acc.Balance
	}
	riskPercent := req.RiskPercent
	if riskPercent.IsZero() {
		riskPercent = s.cfg.DefaultRiskPercent
	}

	trade := domain.Trade{
		Ref:         uuid.NewString(),
		AccountID:   acc.ID,
		Symbol:      req.Symbol,
		Direction:   req.Direction,
		EntryPrice:  req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		AccountSize: accountSize,
		RiskPercent: riskPercent,
		Status:      domain.StatusPlanning,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}

	trade, err = s.engine.Recalculate(trade)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.CreateTrade(ctx, &trade); err != nil {
		s.logger.Error(ctx, err, op+": failed to save trade", map[string]interface{}{"accountID": acc.ID, "symbol": trade.Symbol})
		return nil, fmt.Errorf("%s: failed to save trade: %w", op, err)
	}
	s.logger.Info(ctx, op+": trade created", map[string]interface{}{
		"tradeID": trade.ID,
		"ref":     trade.Ref,
		"symbol":  trade.Symbol,
		"lotSize": trade.Planned.LotSize,
	})
	return &trade, nil
}

// UpdateTrade applies planning-field edits and recomputes the planned result.
// Rejected for closed trades; corrections to an outcome go through
// ChangeStatus instead.
func (s *JournalService) UpdateTrade(ctx context.Context, id int64, req UpdateTradeRequest) (*domain.Trade, error) {
	op := "UpdateTrade"

	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.loadTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Status.IsTerminal() {
		return nil, fmt.Errorf("%s: trade %d: %w", op, id, ports.ErrTradeClosed)
	}

	updated := *trade
	if req.EntryPrice != nil {
		updated.EntryPrice = *req.EntryPrice
	}
	if req.StopLoss != nil {
		updated.StopLoss = *req.StopLoss
	}
	if req.TakeProfit != nil {
		updated.TakeProfit = *req.TakeProfit
	}
	if req.AccountSize != nil {
		updated.AccountSize = *req.AccountSize
	}
	if req.RiskPercent != nil {
		updated.RiskPercent = *req.RiskPercent
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}

	updated, err = s.engine.Recalculate(updated)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.UpdateTrade(ctx, &updated); err != nil {
		s.logger.Error(ctx, err, op+": failed to save trade", map[string]interface{}{"tradeID": id})
		return nil, fmt.Errorf("%s: failed to save trade: %w", op, err)
	}
	s.logger.Info(ctx, op+": trade updated", map[string]interface{}{"tradeID": id, "lotSize": updated.Planned.LotSize})
	return &updated, nil
}

// ChangeStatus drives a lifecycle transition. Terminal targets compute the
// realized result and commit the trade together with its balance delta in one
// transaction; repeating a terminal target with new exit data is a correction
// and nets out the previously applied P&L.
func (s *JournalService) ChangeStatus(ctx context.Context, id int64, req StatusChangeRequest) (*domain.Trade, error) {
	op := "ChangeStatus"

	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.loadTrade(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *trade
	if req.ManualPnL != nil {
		updated.SetManualPnL(*req.ManualPnL)
	} else if req.ActualExit != nil {
		updated.SetPriceExit(req.ActualEntry, *req.ActualExit)
	}

	switch req.Target {
	case domain.StatusOpen:
		updated, err = s.engine.MarkOpen(updated)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.store.UpdateTrade(ctx, &updated); err != nil {
			s.logger.Error(ctx, err, op+": failed to save opened trade", map[string]interface{}{"tradeID": id})
			return nil, fmt.Errorf("%s: failed to save trade: %w", op, err)
		}
		s.logger.Info(ctx, op+": trade opened", map[string]interface{}{"tradeID": id})
		return &updated, nil

	case domain.StatusWin, domain.StatusLoss:
		acc, err := s.GetAccount(ctx, updated.AccountID)
		if err != nil {
			return nil, err
		}
		outcome, err := s.engine.Close(updated, req.Target, acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if outcome.Trade.ClosedAt.IsZero() {
			outcome.Trade.ClosedAt = time.Now().UTC()
		}
		if err := s.store.CommitTransition(ctx, &outcome.Trade, outcome.Delta); err != nil {
			s.logger.Error(ctx, err, op+": failed to commit transition", map[string]interface{}{"tradeID": id, "target": req.Target})
			return nil, fmt.Errorf("%s: failed to commit transition: %w", op, err)
		}
		fields := map[string]interface{}{"tradeID": id, "status": req.Target, "pnl": outcome.Trade.Realized.PnL}
		if outcome.Delta != nil {
			fields["balanceDelta"] = outcome.Delta.Amount
		}
		s.logger.Info(ctx, op+": trade closed", fields)
		return &outcome.Trade, nil

	default:
		return nil, fmt.Errorf("%s: %w", op, &lifecycle.InvalidTransitionError{
			From: updated.Status, To: req.Target, Reason: "target status is not reachable"})
	}
}

// DeleteTrade removes a trade. If its realized P&L was applied to the owning
// account, the delta is reversed in the same transaction as the removal.
func (s *JournalService) DeleteTrade(ctx context.Context, id int64) error {
	op := "DeleteTrade"

	s.mu.Lock()
	defer s.mu.Unlock()

	trade, err := s.loadTrade(ctx, id)
	if err != nil {
		return err
	}

	outcome := s.engine.ReverseIfApplied(*trade)
	if err := s.store.DeleteTrade(ctx, &outcome.Trade, outcome.Delta); err != nil {
		s.logger.Error(ctx, err, op+": failed to delete trade", map[string]interface{}{"tradeID": id})
		return fmt.Errorf("%s: failed to delete trade: %w", op, err)
	}
	fields := map[string]interface{}{"tradeID": id}
	if outcome.Delta != nil {
		fields["reversedDelta"] = outcome.Delta.Amount
	}
	s.logger.Info(ctx, op+": trade deleted", fields)
	return nil
}

// GetTrade retrieves a trade by ID.
func (s *JournalService) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	return s.loadTrade(ctx, id)
}

// ListTrades retrieves all trades for an account, newest first.
func (s *JournalService) ListTrades(ctx context.Context, accountID int64) ([]*domain.Trade, error) {
	return s.store.FindTradesByAccount(ctx, accountID)
}

// AccountStats aggregates journal statistics for an account.
func (s *JournalService) AccountStats(ctx context.Context, accountID int64) (*analytics.Stats, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	trades, err := s.store.FindTradesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for account %d: %w", accountID, err)
	}
	return analytics.Analyze(trades), nil
}

func (s *JournalService) loadTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	trade, err := s.store.FindTradeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade %d: %w", id, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("trade %d: %w", id, ports.ErrTradeNotFound)
	}
	return trade, nil
}
