// Package pnl computes realized profit/loss figures for trades that have
// reached a terminal status.
package pnl

import (
	"errors"

	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
	"tradejournal/internal/instruments"
)

// Exit-reporting precondition errors. The lifecycle engine surfaces these to
// the caller as the named missing precondition of a rejected transition.
var (
	ErrNoExitInfo = errors.New("neither an actual exit price nor a manual P&L is set")
)

var hundred = decimal.NewFromInt(100)

// Calculator derives realized results from a trade's exit data.
type Calculator struct {
	table *instruments.Table
}

// NewCalculator creates a calculator backed by the given instrument table.
func NewCalculator(table *instruments.Table) *Calculator {
	return &Calculator{table: table}
}

// Realize computes the realized result for a trade in whichever exit
// reporting mode it carries.
//
// Manual mode takes the reported P&L verbatim; pips and risk:reward cannot be
// derived without an exit price and are reported as zero. Price mode uses the
// actual entry (falling back to the planned entry price) and actual exit; the
// position size is the one frozen in the planned result at creation time, it
// is never recomputed from fills. An unknown instrument degrades the price
// calculation to a zero P&L rather than failing, so a trade can still be
// closed manually when its instrument metadata is missing.
//
// accountBalance is the owning account's balance before the resulting delta
// is applied; it only feeds the informational impact percentage.
func (c *Calculator) Realize(trade *domain.Trade, accountBalance decimal.Decimal) (domain.RealizedResult, error) {
	if trade.ManualPnL != nil {
		return c.realizeManual(trade, accountBalance), nil
	}
	if trade.ActualExit == nil {
		return domain.RealizedResult{}, ErrNoExitInfo
	}
	return c.realizeFromPrices(trade, accountBalance), nil
}

func (c *Calculator) realizeManual(trade *domain.Trade, accountBalance decimal.Decimal) domain.RealizedResult {
	pnl := *trade.ManualPnL
	return domain.RealizedResult{
		PnL:                  pnl,
		Pips:                 decimal.Zero,
		RiskRewardRatio:      decimal.Zero,
		AccountImpactPercent: impactPercent(pnl, accountBalance),
		Manual:               true,
	}
}

func (c *Calculator) realizeFromPrices(trade *domain.Trade, accountBalance decimal.Decimal) domain.RealizedResult {
	inst, ok := c.table.Resolve(trade.Symbol)
	if !ok {
		return domain.RealizedResult{}
	}

	entry := trade.EntryPrice
	if trade.ActualEntry != nil {
		entry = *trade.ActualEntry
	}
	exit := *trade.ActualExit

	// Signed price delta: favourable moves are positive for either direction.
	delta := exit.Sub(entry)
	if trade.Direction == domain.Short {
		delta = entry.Sub(exit)
	}

	// P&L is computed from the unrounded pip distance; the reported pip count
	// is rounded separately.
	deltaPips := delta.Div(inst.PipSize)
	pnl := deltaPips.Mul(inst.PipValuePerLot).Mul(trade.Planned.LotSize).Round(2)

	riskReward := decimal.Zero
	if trade.Planned.RiskAmount.IsPositive() {
		riskReward = pnl.Div(trade.Planned.RiskAmount).Round(2)
	}

	return domain.RealizedResult{
		PnL:                  pnl,
		Pips:                 instruments.PipsMoved(entry, exit, inst),
		RiskRewardRatio:      riskReward,
		AccountImpactPercent: impactPercent(pnl, accountBalance),
	}
}

// impactPercent reports the P&L relative to the balance it is about to be
// applied to. Informational only; balance mutation always uses the raw P&L.
func impactPercent(pnl, balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return pnl.Div(balance).Mul(hundred).Round(2)
}
