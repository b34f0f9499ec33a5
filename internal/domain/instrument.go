package domain

import "github.com/shopspring/decimal"

// Instrument describes a tradable symbol and its pip scaling rules.
// Instances are immutable; they are built once at process start by the
// instrument table and shared by value.
type Instrument struct {
	Symbol         string             // Quoted symbol, e.g. "EUR/USD", "XAUUSD"
	Category       InstrumentCategory // forex, metal, energy or crypto
	PipSize        decimal.Decimal    // Smallest increment counted as one pip
	PipValuePerLot decimal.Decimal    // Monetary value of one pip per lot
}
