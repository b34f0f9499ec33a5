package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskParameters are the raw planning inputs a trade is sized from.
// It is a value object; it is never persisted on its own.
type RiskParameters struct {
	AccountSize decimal.Decimal // Account equity the risk is taken against
	RiskPercent decimal.Decimal // Percentage of the account risked, in (0, 100]
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
}

// CalculatedResult holds the derived planning figures for a trade. It is
// always recomputed from RiskParameters, never hand-edited. The zero value is
// the "cannot calculate yet" state used while inputs are incomplete.
type CalculatedResult struct {
	RiskAmount      decimal.Decimal // accountSize * riskPercent / 100, 2dp
	LotSize         decimal.Decimal // Position size, 4dp
	PotentialProfit decimal.Decimal // 2dp
	PotentialLoss   decimal.Decimal // Equals RiskAmount by construction
	ProfitPips      decimal.Decimal // 1dp
	LossPips        decimal.Decimal // 1dp
	RiskRewardRatio decimal.Decimal // 2dp
}

// IsZero reports whether the result is the all-zero "cannot calculate" state.
func (c CalculatedResult) IsZero() bool {
	return c.RiskAmount.IsZero() && c.LotSize.IsZero() &&
		c.PotentialProfit.IsZero() && c.PotentialLoss.IsZero() &&
		c.ProfitPips.IsZero() && c.LossPips.IsZero() && c.RiskRewardRatio.IsZero()
}

// RealizedResult holds the outcome figures of a closed trade.
type RealizedResult struct {
	PnL                  decimal.Decimal // Signed realized profit/loss, 2dp
	Pips                 decimal.Decimal // Pips between actual entry and exit, 1dp (0 for manual)
	RiskRewardRatio      decimal.Decimal // Achieved R multiple, 2dp (0 for manual)
	AccountImpactPercent decimal.Decimal // PnL relative to the balance before applying it, 2dp
	Manual               bool            // True when PnL was reported directly
}

// Trade is the aggregate root of the journal. Entry/stop/target and the risk
// inputs drive the planned result; actual exit data (or a manual P&L figure)
// drives the realized result once the trade reaches win or loss.
type Trade struct {
	ID        int64
	Ref       string // Stable external reference (UUID), assigned at creation
	AccountID int64
	Symbol    string
	Direction Direction

	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	AccountSize decimal.Decimal
	RiskPercent decimal.Decimal

	// Exit reporting. ActualEntry/ActualExit and ManualPnL are mutually
	// exclusive modes; use SetPriceExit/SetManualPnL to switch so the stale
	// value of the other mode is discarded.
	ActualEntry *decimal.Decimal
	ActualExit  *decimal.Decimal
	ManualPnL   *decimal.Decimal

	Planned  CalculatedResult
	Realized *RealizedResult

	Status TradeStatus

	// BalanceApplied guards the account balance invariant: true once (and only
	// while) the realized P&L is reflected in the owning account's balance.
	BalanceApplied bool

	Notes     string
	CreatedAt time.Time
	ClosedAt  time.Time // Zero until the trade first reaches win or loss
}

// RiskParameters assembles the sizing inputs from the trade's planning fields.
func (t *Trade) RiskParameters() RiskParameters {
	return RiskParameters{
		AccountSize: t.AccountSize,
		RiskPercent: t.RiskPercent,
		EntryPrice:  t.EntryPrice,
		StopLoss:    t.StopLoss,
		TakeProfit:  t.TakeProfit,
	}
}

// SetManualPnL switches the trade to manual exit reporting, discarding any
// recorded actual prices.
func (t *Trade) SetManualPnL(pnl decimal.Decimal) {
	t.ManualPnL = &pnl
	t.ActualEntry = nil
	t.ActualExit = nil
}

// SetPriceExit switches the trade to price-based exit reporting, discarding
// any manual P&L. A nil entry means the planned entry price is used.
func (t *Trade) SetPriceExit(entry *decimal.Decimal, exit decimal.Decimal) {
	t.ActualEntry = entry
	t.ActualExit = &exit
	t.ManualPnL = nil
}

// HasExitInfo reports whether the trade carries enough data to realize a
// result in either reporting mode.
func (t *Trade) HasExitInfo() bool {
	return t.ManualPnL != nil || t.ActualExit != nil
}
