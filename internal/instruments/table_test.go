package instruments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/domain"
)

func TestResolve_PipPolicy(t *testing.T) {
	table := New()

	tests := []struct {
		symbol       string
		category     domain.InstrumentCategory
		wantPipSize  string
		wantPipValue string
	}{
		{"EUR/USD", domain.CategoryForex, "0.0001", "10"},
		{"GBP/USD", domain.CategoryForex, "0.0001", "10"},
		{"USD/JPY", domain.CategoryForex, "0.01", "1000"},
		{"GBP/JPY", domain.CategoryForex, "0.01", "1000"},
		{"XAUUSD", domain.CategoryMetal, "0.1", "100"},
		{"XAGUSD", domain.CategoryMetal, "0.01", "50"},
		{"XTIUSD", domain.CategoryEnergy, "0.01", "100"},
		{"XBRUSD", domain.CategoryEnergy, "0.01", "100"},
		{"XNGUSD", domain.CategoryEnergy, "0.01", "10"},
		{"BTCUSD", domain.CategoryCrypto, "1", "1"},
		{"ETHUSD", domain.CategoryCrypto, "1", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			inst, ok := table.Resolve(tt.symbol)
			require.True(t, ok, "symbol %s should resolve", tt.symbol)
			assert.Equal(t, tt.category, inst.Category)
			assert.True(t, inst.PipSize.Equal(decimal.RequireFromString(tt.wantPipSize)),
				"pip size: want %s, got %s", tt.wantPipSize, inst.PipSize)
			assert.True(t, inst.PipValuePerLot.Equal(decimal.RequireFromString(tt.wantPipValue)),
				"pip value: want %s, got %s", tt.wantPipValue, inst.PipValuePerLot)
		})
	}
}

func TestResolve_UnknownSymbol(t *testing.T) {
	table := New()

	_, ok := table.Resolve("FOO/BAR")
	assert.False(t, ok)

	// Lookup is case sensitive, exact match only.
	_, ok = table.Resolve("eur/usd")
	assert.False(t, ok)
}

func TestPipsMoved_LegacyMultipliers(t *testing.T) {
	table := New()

	tests := []struct {
		name     string
		symbol   string
		a, b     string
		wantPips string
	}{
		// x10000 for non-JPY forex
		{"eurusd 20 pips", "EUR/USD", "1.10000", "1.09800", "20"},
		{"eurusd 40 pips", "EUR/USD", "1.10000", "1.10400", "40"},
		// x100 for JPY pairs
		{"usdjpy", "USD/JPY", "150.00", "149.50", "50"},
		// x10 for gold
		{"gold", "XAUUSD", "1900", "1890", "100"},
		// x100 for silver
		{"silver", "XAGUSD", "24.00", "23.50", "50"},
		// x100 for oil
		{"oil", "XTIUSD", "78.50", "78.00", "50"},
		// x1 for crypto
		{"btc", "BTCUSD", "65000", "64000", "1000"},
		// order of arguments does not matter
		{"reversed", "EUR/USD", "1.09800", "1.10000", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, ok := table.Resolve(tt.symbol)
			require.True(t, ok)
			pips := PipsMoved(decimal.RequireFromString(tt.a), decimal.RequireFromString(tt.b), inst)
			assert.True(t, pips.Equal(decimal.RequireFromString(tt.wantPips)),
				"want %s pips, got %s", tt.wantPips, pips)
		})
	}
}

func TestPipsMoved_RoundsToOneDecimal(t *testing.T) {
	table := New()
	inst, ok := table.Resolve("EUR/USD")
	require.True(t, ok)

	pips := PipsMoved(decimal.RequireFromString("1.10000"), decimal.RequireFromString("1.099985"), inst)
	assert.True(t, pips.Equal(decimal.RequireFromString("0.2")), "got %s", pips)
}

func TestPipsMoved_ZeroPipSize(t *testing.T) {
	pips := PipsMoved(decimal.NewFromInt(1), decimal.NewFromInt(2), domain.Instrument{})
	assert.True(t, pips.IsZero())
}
