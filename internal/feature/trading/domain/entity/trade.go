package entity

import "github.com/shopspring/decimal"

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is an append-only record of one executed market order.
type TradeRecord struct {
	ID               string
	MemberID         uint
	Symbol           string
	Side             Side
	Quantity         int64
	ExecutionPrice   int64
	ExecutedAtMillis int64

	// RealizedPnL is zero for buys and (price - avgCost) * quantity for sells.
	RealizedPnL decimal.Decimal
}
