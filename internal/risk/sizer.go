// Package risk turns raw planning inputs into position size and planned
// profit/loss figures.
package risk

import (
	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
	"tradejournal/internal/instruments"
)

var hundred = decimal.NewFromInt(100)

// PositionSizer computes the planned figures for a trade from its risk
// parameters. It is stateless apart from the instrument table it resolves
// symbols against.
type PositionSizer struct {
	table *instruments.Table
}

// NewPositionSizer creates a sizer backed by the given instrument table.
func NewPositionSizer(table *instruments.Table) *PositionSizer {
	return &PositionSizer{table: table}
}

// Size computes the full CalculatedResult for the given parameters and symbol.
//
// Incomplete or non-positive inputs, a stop equal to the entry, a risk percent
// outside (0, 100] or an unknown symbol all yield the all-zero result: the
// caller may be mid-form and must be able to render zeros rather than an
// error. The position is always sized so that a stop-loss hit loses exactly
// the intended risk amount, which is why PotentialLoss equals RiskAmount by
// construction.
func (s *PositionSizer) Size(params domain.RiskParameters, symbol string) domain.CalculatedResult {
	if !s.canSize(params) {
		return domain.CalculatedResult{}
	}
	inst, ok := s.table.Resolve(symbol)
	if !ok {
		return domain.CalculatedResult{}
	}

	lossPips := instruments.PipsMoved(params.EntryPrice, params.StopLoss, inst)
	profitPips := instruments.PipsMoved(params.EntryPrice, params.TakeProfit, inst)

	riskAmount := params.AccountSize.Mul(params.RiskPercent).Div(hundred).Round(2)

	lotSize := decimal.Zero
	if lossPips.IsPositive() {
		lotSize = riskAmount.Div(lossPips.Mul(inst.PipValuePerLot)).Round(4)
		if lotSize.IsNegative() {
			lotSize = decimal.Zero
		}
	}

	potentialProfit := profitPips.Mul(inst.PipValuePerLot).Mul(lotSize).Round(2)
	if potentialProfit.IsNegative() {
		potentialProfit = decimal.Zero
	}

	riskReward := decimal.Zero
	if potentialProfit.IsPositive() && riskAmount.IsPositive() {
		riskReward = potentialProfit.Div(riskAmount).Round(2)
	}

	return domain.CalculatedResult{
		RiskAmount:      riskAmount,
		LotSize:         lotSize,
		PotentialProfit: potentialProfit,
		PotentialLoss:   riskAmount,
		ProfitPips:      profitPips,
		LossPips:        lossPips,
		RiskRewardRatio: riskReward,
	}
}

// canSize checks the preconditions for a meaningful calculation.
func (s *PositionSizer) canSize(p domain.RiskParameters) bool {
	if !p.AccountSize.IsPositive() || !p.EntryPrice.IsPositive() ||
		!p.StopLoss.IsPositive() || !p.TakeProfit.IsPositive() {
		return false
	}
	if !p.RiskPercent.IsPositive() || p.RiskPercent.GreaterThan(hundred) {
		return false
	}
	return !p.StopLoss.Equal(p.EntryPrice)
}
