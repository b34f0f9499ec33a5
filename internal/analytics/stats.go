// Package analytics aggregates journal statistics over closed trades.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Stats holds aggregate performance figures for an account's journal.
// Only trades in a terminal status with a realized result are counted.
type Stats struct {
	TotalTrades   int
	OpenTrades    int
	WinningTrades int
	LosingTrades  int

	WinRate      decimal.Decimal // Percentage of closed trades with positive P&L, 2dp
	NetProfit    decimal.Decimal // Sum of realized P&L, 2dp
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal // Reported as a positive magnitude
	ProfitFactor decimal.Decimal // GrossProfit / GrossLoss, 2dp
	AverageWin   decimal.Decimal
	AverageLoss  decimal.Decimal // Reported as a positive magnitude
	Expectancy   decimal.Decimal // Mean realized P&L per closed trade, 2dp
	BestTrade    decimal.Decimal
	WorstTrade   decimal.Decimal

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
}

// Analyze computes journal statistics from trades. Trades still in planning
// or open contribute only to the open-trade count.
func Analyze(trades []*domain.Trade) *Stats {
	stats := &Stats{}

	closed := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Status.IsTerminal() && t.Realized != nil {
			closed = append(closed, t)
			continue
		}
		if t.Status == domain.StatusOpen {
			stats.OpenTrades++
		}
	}
	stats.TotalTrades = len(closed)
	if len(closed) == 0 {
		return stats
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].CreatedAt.Before(closed[j].CreatedAt)
	})

	var consecutiveWins, consecutiveLosses int
	for i, t := range closed {
		pnl := t.Realized.PnL
		stats.NetProfit = stats.NetProfit.Add(pnl)

		if pnl.IsPositive() {
			stats.WinningTrades++
			stats.GrossProfit = stats.GrossProfit.Add(pnl)
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			stats.LosingTrades++
			stats.GrossLoss = stats.GrossLoss.Add(pnl.Abs())
			consecutiveLosses++
			consecutiveWins = 0
		}
		if consecutiveWins > stats.MaxConsecutiveWins {
			stats.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > stats.MaxConsecutiveLosses {
			stats.MaxConsecutiveLosses = consecutiveLosses
		}

		if i == 0 || pnl.GreaterThan(stats.BestTrade) {
			stats.BestTrade = pnl
		}
		if i == 0 || pnl.LessThan(stats.WorstTrade) {
			stats.WorstTrade = pnl
		}
	}

	total := decimal.NewFromInt(int64(stats.TotalTrades))
	stats.WinRate = decimal.NewFromInt(int64(stats.WinningTrades)).Div(total).Mul(hundred).Round(2)
	stats.Expectancy = stats.NetProfit.Div(total).Round(2)
	stats.NetProfit = stats.NetProfit.Round(2)

	if stats.WinningTrades > 0 {
		stats.AverageWin = stats.GrossProfit.Div(decimal.NewFromInt(int64(stats.WinningTrades))).Round(2)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = stats.GrossLoss.Div(decimal.NewFromInt(int64(stats.LosingTrades))).Round(2)
	}
	if stats.GrossLoss.IsPositive() {
		stats.ProfitFactor = stats.GrossProfit.Div(stats.GrossLoss).Round(2)
	}
	return stats
}
