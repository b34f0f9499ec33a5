package ports

import (
	"context"

	"tradejournal/internal/domain"
)

// AccountRepository defines the interface for storing and retrieving accounts.
type AccountRepository interface {
	// CreateAccount saves a new account and returns its assigned ID.
	CreateAccount(ctx context.Context, acc *domain.Account) (int64, error)
	// FindAccountByID retrieves an account by its unique ID.
	// Returns nil, nil if not found.
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	// FindAllAccounts retrieves all accounts, ordered by creation time.
	FindAllAccounts(ctx context.Context) ([]*domain.Account, error)
}

// TradeRepository defines the interface for storing and retrieving journal trades.
type TradeRepository interface {
	// CreateTrade saves a new trade and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// UpdateTrade modifies an existing trade without touching any account.
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	// FindTradeByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindTradesByAccount retrieves all trades for an account, newest first.
	FindTradesByAccount(ctx context.Context, accountID int64) ([]*domain.Trade, error)
}

// TransitionCommitter persists a status transition as one atomic unit: the
// updated trade row plus, when present, the balance delta applied to the
// owning account. This is the single serialized write the lifecycle engine
// depends on to keep balances consistent under corrections.
type TransitionCommitter interface {
	// CommitTransition updates the trade and applies delta (if non-nil) to the
	// account balance inside one transaction.
	CommitTransition(ctx context.Context, trade *domain.Trade, delta *domain.BalanceDelta) error
	// DeleteTrade removes the trade and applies delta (if non-nil, the
	// reversal of a previously applied P&L) inside one transaction.
	DeleteTrade(ctx context.Context, trade *domain.Trade, delta *domain.BalanceDelta) error
}

// JournalStore aggregates everything the journal service needs from
// persistence.
type JournalStore interface {
	AccountRepository
	TradeRepository
	TransitionCommitter
}
