package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the owner of a set of trades. The engine only ever touches its
// balance through explicit BalanceDelta values; it never mutates an account
// directly.
type Account struct {
	ID        int64           // Unique identifier (from DB)
	Name      string          // Display name
	Balance   decimal.Decimal // Current balance, in account currency
	CreatedAt time.Time
}

// BalanceDelta is the signed adjustment a trade outcome applies to its owning
// account. The caller must persist it atomically with the trade update that
// produced it.
type BalanceDelta struct {
	AccountID int64
	Amount    decimal.Decimal
}
