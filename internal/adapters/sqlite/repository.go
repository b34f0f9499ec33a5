package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.JournalStore using SQLite. Monetary and price
// values are stored as decimal strings so nothing is lost to float rounding.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_journal.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		balance TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ref TEXT NOT NULL UNIQUE,
		account_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price TEXT NOT NULL,
		stop_loss TEXT NOT NULL,
		take_profit TEXT NOT NULL,
		account_size TEXT NOT NULL,
		risk_percent TEXT NOT NULL,
		actual_entry TEXT DEFAULT NULL,
		actual_exit TEXT DEFAULT NULL,
		manual_pnl TEXT DEFAULT NULL,
		planned_risk_amount TEXT NOT NULL,
		planned_lot_size TEXT NOT NULL,
		planned_potential_profit TEXT NOT NULL,
		planned_potential_loss TEXT NOT NULL,
		planned_profit_pips TEXT NOT NULL,
		planned_loss_pips TEXT NOT NULL,
		planned_risk_reward TEXT NOT NULL,
		realized_pnl TEXT DEFAULT NULL,
		realized_pips TEXT DEFAULT NULL,
		realized_risk_reward TEXT DEFAULT NULL,
		realized_impact_percent TEXT DEFAULT NULL,
		realized_manual INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		balance_applied INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_account_status ON trades (account_id, status);
	CREATE INDEX IF NOT EXISTS idx_trades_account_created ON trades (account_id, created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- AccountRepository Implementation ---

// CreateAccount saves a new account and returns its assigned ID.
func (r *Repository) CreateAccount(ctx context.Context, acc *domain.Account) (int64, error) {
	const query = `INSERT INTO accounts (name, balance, created_at) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, acc.Name, acc.Balance.String(), acc.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert account '%s': %w", acc.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for account '%s': %w", acc.Name, err)
	}
	acc.ID = id
	r.logger.Debug(ctx, "Account created", map[string]interface{}{"accountID": id, "name": acc.Name})
	return id, nil
}

// FindAccountByID retrieves an account by ID. Returns nil, nil if not found.
func (r *Repository) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `SELECT id, name, balance, created_at FROM accounts WHERE id = ?`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query account %d: %w", id, err)
	}
	return acc, nil
}

// FindAllAccounts retrieves all accounts, ordered by creation time.
func (r *Repository) FindAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	const query = `SELECT id, name, balance, created_at FROM accounts ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `id, ref, account_id, symbol, direction,
	entry_price, stop_loss, take_profit, account_size, risk_percent,
	actual_entry, actual_exit, manual_pnl,
	planned_risk_amount, planned_lot_size, planned_potential_profit, planned_potential_loss,
	planned_profit_pips, planned_loss_pips, planned_risk_reward,
	realized_pnl, realized_pips, realized_risk_reward, realized_impact_percent, realized_manual,
	status, balance_applied, notes, created_at, closed_at`

// CreateTrade saves a new trade and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (ref, account_id, symbol, direction,
		entry_price, stop_loss, take_profit, account_size, risk_percent,
		actual_entry, actual_exit, manual_pnl,
		planned_risk_amount, planned_lot_size, planned_potential_profit, planned_potential_loss,
		planned_profit_pips, planned_loss_pips, planned_risk_reward,
		realized_pnl, realized_pips, realized_risk_reward, realized_impact_percent, realized_manual,
		status, balance_applied, notes, created_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, tradeArgs(trade)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for symbol %s: %w", trade.Symbol, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Symbol, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol})
	return id, nil
}

// UpdateTrade modifies an existing trade without touching any account.
func (r *Repository) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	return r.updateTradeExec(ctx, r.db, trade)
}

// FindTradeByID retrieves a trade by ID. Returns nil, nil if not found.
func (r *Repository) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	trade, err := scanTrade(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query trade %d: %w", id, err)
	}
	return trade, nil
}

// FindTradesByAccount retrieves all trades for an account, newest first.
func (r *Repository) FindTradesByAccount(ctx context.Context, accountID int64) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE account_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for account %d: %w", accountID, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// --- TransitionCommitter Implementation ---

// CommitTransition updates the trade and applies delta (if non-nil) to the
// owning account's balance inside one transaction.
func (r *Repository) CommitTransition(ctx context.Context, trade *domain.Trade, delta *domain.BalanceDelta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.updateTradeExec(ctx, tx, trade); err != nil {
		return err
	}
	if delta != nil {
		if err := r.applyDelta(ctx, tx, delta); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition for trade %d: %w", trade.ID, err)
	}
	r.logger.Debug(ctx, "Transition committed", map[string]interface{}{"tradeID": trade.ID, "status": trade.Status})
	return nil
}

// DeleteTrade removes the trade and applies delta (if non-nil) inside one
// transaction.
func (r *Repository) DeleteTrade(ctx context.Context, trade *domain.Trade, delta *domain.BalanceDelta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", trade.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete trade %d: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %d not found for delete: %w", trade.ID, ports.ErrNotFound)
	}

	if delta != nil {
		if err := r.applyDelta(ctx, tx, delta); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete for trade %d: %w", trade.ID, err)
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": trade.ID})
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *Repository) updateTradeExec(ctx context.Context, ex execer, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET symbol = ?, direction = ?,
	    entry_price = ?, stop_loss = ?, take_profit = ?, account_size = ?, risk_percent = ?,
	    actual_entry = ?, actual_exit = ?, manual_pnl = ?,
	    planned_risk_amount = ?, planned_lot_size = ?, planned_potential_profit = ?, planned_potential_loss = ?,
	    planned_profit_pips = ?, planned_loss_pips = ?, planned_risk_reward = ?,
	    realized_pnl = ?, realized_pips = ?, realized_risk_reward = ?, realized_impact_percent = ?, realized_manual = ?,
	    status = ?, balance_applied = ?, notes = ?, closed_at = ?
	WHERE id = ?`

	args := tradeArgs(trade)
	// tradeArgs is ordered for INSERT; reuse the slice minus the identity and
	// created_at columns, then append the WHERE argument.
	updateArgs := make([]interface{}, 0, 27)
	updateArgs = append(updateArgs, args[2:27]...)  // symbol .. notes
	updateArgs = append(updateArgs, args[28])       // closed_at
	updateArgs = append(updateArgs, trade.ID)

	result, err := ex.ExecContext(ctx, query, updateArgs...)
	if err != nil {
		return fmt.Errorf("failed to update trade %d: %w", trade.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade %d: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %d not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	return nil
}

// applyDelta adjusts the account balance by the delta amount. The read and
// write happen on the same transaction, so the adjustment is atomic with the
// trade change that produced it.
func (r *Repository) applyDelta(ctx context.Context, ex execer, delta *domain.BalanceDelta) error {
	var balanceStr string
	err := ex.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, delta.AccountID).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d not found for balance update: %w", delta.AccountID, ports.ErrNotFound)
		}
		return fmt.Errorf("failed to read balance for account %d: %w", delta.AccountID, err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("corrupt balance value '%s' for account %d: %w", balanceStr, delta.AccountID, err)
	}

	newBalance := balance.Add(delta.Amount)
	result, err := ex.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, newBalance.String(), delta.AccountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", delta.AccountID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for balance update on account %d: %w", delta.AccountID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %d not found for balance update: %w", delta.AccountID, ports.ErrNotFound)
	}
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	acc := &domain.Account{}
	var balanceStr string
	if err := s.Scan(&acc.ID, &acc.Name, &balanceStr, &acc.CreatedAt); err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance value '%s': %w", balanceStr, err)
	}
	acc.Balance = balance
	return acc, nil
}

func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var (
		direction, status                               string
		entry, stop, target, accountSize, riskPct       string
		actualEntry, actualExit, manualPnL              sql.NullString
		riskAmount, lotSize, potProfit, potLoss         string
		profitPips, lossPips, riskReward                string
		realPnL, realPips, realRR, realImpact           sql.NullString
		realManual, balanceApplied                      bool
		closedAt                                        sql.NullTime
	)
	err := s.Scan(
		&t.ID, &t.Ref, &t.AccountID, &t.Symbol, &direction,
		&entry, &stop, &target, &accountSize, &riskPct,
		&actualEntry, &actualExit, &manualPnL,
		&riskAmount, &lotSize, &potProfit, &potLoss,
		&profitPips, &lossPips, &riskReward,
		&realPnL, &realPips, &realRR, &realImpact, &realManual,
		&status, &balanceApplied, &t.Notes, &t.CreatedAt, &closedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}

	t.Direction = domain.Direction(direction)
	t.Status = domain.TradeStatus(status)
	t.BalanceApplied = balanceApplied
	if closedAt.Valid {
		t.ClosedAt = closedAt.Time
	}

	if t.EntryPrice, err = decimal.NewFromString(entry); err != nil {
		return nil, fmt.Errorf("corrupt entry_price '%s': %w", entry, err)
	}
	if t.StopLoss, err = decimal.NewFromString(stop); err != nil {
		return nil, fmt.Errorf("corrupt stop_loss '%s': %w", stop, err)
	}
	if t.TakeProfit, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("corrupt take_profit '%s': %w", target, err)
	}
	if t.AccountSize, err = decimal.NewFromString(accountSize); err != nil {
		return nil, fmt.Errorf("corrupt account_size '%s': %w", accountSize, err)
	}
	if t.RiskPercent, err = decimal.NewFromString(riskPct); err != nil {
		return nil, fmt.Errorf("corrupt risk_percent '%s': %w", riskPct, err)
	}

	if t.ActualEntry, err = nullDecimal(actualEntry); err != nil {
		return nil, fmt.Errorf("corrupt actual_entry: %w", err)
	}
	if t.ActualExit, err = nullDecimal(actualExit); err != nil {
		return nil, fmt.Errorf("corrupt actual_exit: %w", err)
	}
	if t.ManualPnL, err = nullDecimal(manualPnL); err != nil {
		return nil, fmt.Errorf("corrupt manual_pnl: %w", err)
	}

	planned := domain.CalculatedResult{}
	if planned.RiskAmount, err = decimal.NewFromString(riskAmount); err != nil {
		return nil, fmt.Errorf("corrupt planned_risk_amount '%s': %w", riskAmount, err)
	}
	if planned.LotSize, err = decimal.NewFromString(lotSize); err != nil {
		return nil, fmt.Errorf("corrupt planned_lot_size '%s': %w", lotSize, err)
	}
	if planned.PotentialProfit, err = decimal.NewFromString(potProfit); err != nil {
		return nil, fmt.Errorf("corrupt planned_potential_profit '%s': %w", potProfit, err)
	}
	if planned.PotentialLoss, err = decimal.NewFromString(potLoss); err != nil {
		return nil, fmt.Errorf("corrupt planned_potential_loss '%s': %w", potLoss, err)
	}
	if planned.ProfitPips, err = decimal.NewFromString(profitPips); err != nil {
		return nil, fmt.Errorf("corrupt planned_profit_pips '%s': %w", profitPips, err)
	}
	if planned.LossPips, err = decimal.NewFromString(lossPips); err != nil {
		return nil, fmt.Errorf("corrupt planned_loss_pips '%s': %w", lossPips, err)
	}
	if planned.RiskRewardRatio, err = decimal.NewFromString(riskReward); err != nil {
		return nil, fmt.Errorf("corrupt planned_risk_reward '%s': %w", riskReward, err)
	}
	t.Planned = planned

	if realPnL.Valid {
		realized := &domain.RealizedResult{Manual: realManual}
		pnl, err := nullDecimal(realPnL)
		if err != nil {
			return nil, fmt.Errorf("corrupt realized_pnl: %w", err)
		}
		realized.PnL = *pnl
		if v, err := nullDecimal(realPips); err != nil {
			return nil, fmt.Errorf("corrupt realized_pips: %w", err)
		} else if v != nil {
			realized.Pips = *v
		}
		if v, err := nullDecimal(realRR); err != nil {
			return nil, fmt.Errorf("corrupt realized_risk_reward: %w", err)
		} else if v != nil {
			realized.RiskRewardRatio = *v
		}
		if v, err := nullDecimal(realImpact); err != nil {
			return nil, fmt.Errorf("corrupt realized_impact_percent: %w", err)
		} else if v != nil {
			realized.AccountImpactPercent = *v
		}
		t.Realized = realized
	}

	return t, nil
}

// tradeArgs flattens a trade into the argument list shared by INSERT and
// UPDATE statements (INSERT column order).
func tradeArgs(t *domain.Trade) []interface{} {
	var closedAt sql.NullTime
	if !t.ClosedAt.IsZero() {
		closedAt = sql.NullTime{Time: t.ClosedAt, Valid: true}
	}

	var realPnL, realPips, realRR, realImpact sql.NullString
	var realManual bool
	if t.Realized != nil {
		realPnL = sql.NullString{String: t.Realized.PnL.String(), Valid: true}
		realPips = sql.NullString{String: t.Realized.Pips.String(), Valid: true}
		realRR = sql.NullString{String: t.Realized.RiskRewardRatio.String(), Valid: true}
		realImpact = sql.NullString{String: t.Realized.AccountImpactPercent.String(), Valid: true}
		realManual = t.Realized.Manual
	}

	return []interface{}{
		t.Ref, t.AccountID, t.Symbol, string(t.Direction),
		t.EntryPrice.String(), t.StopLoss.String(), t.TakeProfit.String(),
		t.AccountSize.String(), t.RiskPercent.String(),
		decimalPtrString(t.ActualEntry), decimalPtrString(t.ActualExit), decimalPtrString(t.ManualPnL),
		t.Planned.RiskAmount.String(), t.Planned.LotSize.String(),
		t.Planned.PotentialProfit.String(), t.Planned.PotentialLoss.String(),
		t.Planned.ProfitPips.String(), t.Planned.LossPips.String(), t.Planned.RiskRewardRatio.String(),
		realPnL, realPips, realRR, realImpact, realManual,
		string(t.Status), t.BalanceApplied, t.Notes, t.CreatedAt, closedAt,
	}
}

func decimalPtrString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
