package domain

// Direction represents the side of a trade (long or short).
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// IsValid reports whether the direction is one of the known values.
func (d Direction) IsValid() bool {
	return d == Long || d == Short
}

// TradeStatus represents where a trade sits in its lifecycle.
type TradeStatus string

const (
	StatusPlanning TradeStatus = "planning"
	StatusOpen     TradeStatus = "open"
	StatusWin      TradeStatus = "win"
	StatusLoss     TradeStatus = "loss"
)

// IsTerminal reports whether the status carries a realized outcome.
func (s TradeStatus) IsTerminal() bool {
	return s == StatusWin || s == StatusLoss
}

// IsValid reports whether the status is one of the known values.
func (s TradeStatus) IsValid() bool {
	switch s {
	case StatusPlanning, StatusOpen, StatusWin, StatusLoss:
		return true
	}
	return false
}

// InstrumentCategory classifies tradable instruments for pip scaling purposes.
type InstrumentCategory string

const (
	CategoryForex  InstrumentCategory = "forex"
	CategoryMetal  InstrumentCategory = "metal"
	CategoryEnergy InstrumentCategory = "energy"
	CategoryCrypto InstrumentCategory = "crypto"
)
