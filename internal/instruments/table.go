// Package instruments holds the static catalog of tradable symbols and the
// pip scaling rules everything else derives pip counts from.
package instruments

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tradejournal/internal/domain"
)

// Table is the fixed instrument catalog. Lookup is a case-sensitive exact
// match; unknown symbols resolve to "not found", which downstream components
// must treat as "cannot calculate", never as a failure.
type Table struct {
	bySymbol map[string]domain.Instrument
}

// catalogEntry is a symbol plus its category; pip scaling is derived, not stored.
type catalogEntry struct {
	symbol   string
	category domain.InstrumentCategory
}

// defaultCatalog lists every symbol the journal knows about.
var defaultCatalog = []catalogEntry{
	{"EUR/USD", domain.CategoryForex},
	{"GBP/USD", domain.CategoryForex},
	{"AUD/USD", domain.CategoryForex},
	{"NZD/USD", domain.CategoryForex},
	{"USD/CAD", domain.CategoryForex},
	{"USD/CHF", domain.CategoryForex},
	{"USD/JPY", domain.CategoryForex},
	{"EUR/JPY", domain.CategoryForex},
	{"GBP/JPY", domain.CategoryForex},
	{"AUD/JPY", domain.CategoryForex},
	{"CAD/JPY", domain.CategoryForex},
	{"CHF/JPY", domain.CategoryForex},
	{"EUR/GBP", domain.CategoryForex},
	{"EUR/AUD", domain.CategoryForex},
	{"EUR/CHF", domain.CategoryForex},
	{"GBP/CHF", domain.CategoryForex},
	{"AUD/NZD", domain.CategoryForex},
	{"XAUUSD", domain.CategoryMetal},
	{"XAGUSD", domain.CategoryMetal},
	{"XTIUSD", domain.CategoryEnergy},
	{"XBRUSD", domain.CategoryEnergy},
	{"XNGUSD", domain.CategoryEnergy},
	{"BTCUSD", domain.CategoryCrypto},
	{"ETHUSD", domain.CategoryCrypto},
	{"SOLUSD", domain.CategoryCrypto},
	{"XRPUSD", domain.CategoryCrypto},
}

// New builds the table from the built-in catalog. It is loaded once at
// process start and read-only afterwards.
func New() *Table {
	t := &Table{bySymbol: make(map[string]domain.Instrument, len(defaultCatalog))}
	for _, e := range defaultCatalog {
		pipSize, pipValue := scalingFor(e.symbol, e.category)
		t.bySymbol[e.symbol] = domain.Instrument{
			Symbol:         e.symbol,
			Category:       e.category,
			PipSize:        pipSize,
			PipValuePerLot: pipValue,
		}
	}
	return t
}

// Resolve looks up a symbol in the catalog.
func (t *Table) Resolve(symbol string) (domain.Instrument, bool) {
	inst, ok := t.bySymbol[symbol]
	return inst, ok
}

// Symbols returns every catalog symbol in sorted order, for listing endpoints.
func (t *Table) Symbols() []string {
	out := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PipsMoved converts an absolute price distance into pips for the given
// instrument, rounded half-up to one decimal place.
func PipsMoved(a, b decimal.Decimal, inst domain.Instrument) decimal.Decimal {
	if inst.PipSize.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().Div(inst.PipSize).Round(1)
}

// scalingFor maps a symbol and category onto its pip size and per-lot pip
// value. The resulting pip counts are equivalent to the legacy multiplier
// table: x10000 for non-JPY forex, x100 for JPY pairs, x1 for crypto, x10 for
// gold, x100 for silver and oil.
func scalingFor(symbol string, category domain.InstrumentCategory) (pipSize, pipValuePerLot decimal.Decimal) {
	switch category {
	case domain.CategoryForex:
		if strings.Contains(symbol, "JPY") {
			return decimal.NewFromFloat(0.01), decimal.NewFromInt(1000)
		}
		return decimal.NewFromFloat(0.0001), decimal.NewFromInt(10)
	case domain.CategoryCrypto:
		// Crypto moves are measured in raw price units.
		return decimal.NewFromInt(1), decimal.NewFromInt(1)
	default: // metals and energy
		switch {
		case strings.HasPrefix(symbol, "XAU"):
			return decimal.NewFromFloat(0.1), decimal.NewFromInt(100)
		case strings.HasPrefix(symbol, "XAG"):
			return decimal.NewFromFloat(0.01), decimal.NewFromInt(50)
		case strings.HasPrefix(symbol, "XTI"), strings.HasPrefix(symbol, "XBR"):
			return decimal.NewFromFloat(0.01), decimal.NewFromInt(100)
		default:
			return decimal.NewFromFloat(0.01), decimal.NewFromInt(10)
		}
	}
}
