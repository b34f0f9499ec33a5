// Package lifecycle drives a trade through planning -> open -> win/loss and
// owns the invariant that a trade's realized P&L is reflected in its owning
// account's balance exactly once, no matter how many corrections are made.
package lifecycle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
	"tradejournal/internal/pnl"
	"tradejournal/internal/risk"
)

// InvalidTransitionError rejects a transition whose preconditions are not
// met. The trade is left untouched; Reason names the missing precondition.
type InvalidTransitionError struct {
	From   domain.TradeStatus
	To     domain.TradeStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// Result is the outcome of a balance-affecting operation: the updated trade
// snapshot plus the delta the caller must persist atomically with it. Delta
// is nil when the operation had no net balance effect.
type Result struct {
	Trade domain.Trade
	Delta *domain.BalanceDelta
}

// Engine is the trade lifecycle state machine. All methods operate on a copy
// of the trade and return the updated snapshot; a rejected transition never
// partially mutates state.
type Engine struct {
	sizer *risk.PositionSizer
	calc  *pnl.Calculator
}

// NewEngine creates the lifecycle engine.
func NewEngine(sizer *risk.PositionSizer, calc *pnl.Calculator) (*Engine, error) {
	if sizer == nil || calc == nil {
		return nil, fmt.Errorf("missing required dependencies for lifecycle engine")
	}
	return &Engine{sizer: sizer, calc: calc}, nil
}

// Recalculate recomputes the planned result after a planning-field edit.
// Permitted while the trade is in planning or open; it never touches the
// balance-applied flag or the account.
func (e *Engine) Recalculate(t domain.Trade) (domain.Trade, error) {
	if t.Status.IsTerminal() {
		return t, &InvalidTransitionError{From: t.Status, To: t.Status,
			Reason: "planning fields of a closed trade cannot be recalculated"}
	}
	t.Planned = e.sizer.Size(t.RiskParameters(), t.Symbol)
	return t, nil
}

// MarkOpen moves a planned trade to open. It requires sizing to have
// succeeded; a trade with the all-zero planned result stays in planning.
func (e *Engine) MarkOpen(t domain.Trade) (domain.Trade, error) {
	if t.Status != domain.StatusPlanning {
		return t, &InvalidTransitionError{From: t.Status, To: domain.StatusOpen,
			Reason: "only a planning trade can be opened"}
	}
	if t.Planned.IsZero() || !t.Planned.LotSize.IsPositive() {
		return t, &InvalidTransitionError{From: t.Status, To: domain.StatusOpen,
			Reason: "planned result is zero; complete the sizing inputs first"}
	}
	t.Status = domain.StatusOpen
	return t, nil
}

// Close moves a trade to win or loss, computing its realized result and
// emitting the balance delta the caller must persist with it.
//
// First close from planning/open applies the full P&L. Closing an already
// closed trade is a correction: the previously applied P&L is reversed and
// the new one applied, emitted as a single net delta, so the account always
// carries exactly the current realized P&L of the trade.
//
// accountBalance is the owning account's balance before the delta; it feeds
// only the informational impact percentage.
func (e *Engine) Close(t domain.Trade, target domain.TradeStatus, accountBalance decimal.Decimal) (Result, error) {
	if !target.IsTerminal() {
		return Result{Trade: t}, &InvalidTransitionError{From: t.Status, To: target,
			Reason: "close target must be win or loss"}
	}

	var previous decimal.Decimal
	switch {
	case t.Status == domain.StatusPlanning || t.Status == domain.StatusOpen:
		if t.BalanceApplied {
			// A not-yet-closed trade with an applied balance means the caller
			// skipped the reversal path and the account is corrupt.
			panic(fmt.Sprintf("lifecycle: trade %d has balance applied before first close; reversal path was skipped", t.ID))
		}
	case t.Status.IsTerminal():
		if t.BalanceApplied && t.Realized != nil {
			previous = t.Realized.PnL
		}
	default:
		return Result{Trade: t}, &InvalidTransitionError{From: t.Status, To: target,
			Reason: "unknown current status"}
	}

	realized, err := e.calc.Realize(&t, accountBalance)
	if err != nil {
		return Result{Trade: t}, &InvalidTransitionError{From: t.Status, To: target, Reason: err.Error()}
	}

	t.Realized = &realized
	t.Status = target
	t.BalanceApplied = true

	net := realized.PnL.Sub(previous)
	res := Result{Trade: t}
	if !net.IsZero() {
		res.Delta = &domain.BalanceDelta{AccountID: t.AccountID, Amount: net}
	}
	return res, nil
}

// ReverseIfApplied backs the realized P&L out of the owning account, emitting
// the opposite delta. It is required before a closed trade is deleted and is
// a no-op for trades whose P&L was never applied.
func (e *Engine) ReverseIfApplied(t domain.Trade) Result {
	if !t.BalanceApplied || t.Realized == nil {
		t.BalanceApplied = false
		return Result{Trade: t}
	}
	amount := t.Realized.PnL.Neg()
	t.BalanceApplied = false
	res := Result{Trade: t}
	if !amount.IsZero() {
		res.Delta = &domain.BalanceDelta{AccountID: t.AccountID, Amount: amount}
	}
	return res
}
