package entity

import "github.com/shopspring/decimal"

// Position is a member's holding of one symbol.
type Position struct {
	MemberID uint
	Symbol   string

	// Quantity is the number of units held. A position that reaches zero is removed.
	Quantity int64

	// AvgCost is the quantity-weighted average purchase price, rounded for display.
	// It changes only on buys; sells realize profit against it.
	AvgCost decimal.Decimal

	// CostBasis is the total purchase cost of BasisQty units. CostBasis / BasisQty is the
	// exact average; sells lower Quantity only.
	CostBasis decimal.Decimal
	BasisQty  int64
}

// Basis は正確な取得原価と対象株数を返します。
// 取得原価を持たないポジションは AvgCost * Quantity を使います。
func (p Position) Basis() (decimal.Decimal, int64) {
	if p.BasisQty > 0 {
		return p.CostBasis, p.BasisQty
	}
	return p.AvgCost.Mul(decimal.NewFromInt(p.Quantity)), p.Quantity
}

// MarketValue は指定価格での評価額を返します。
func (p Position) MarketValue(price int64) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL は指定価格での含み損益を返します。
func (p Position) UnrealizedPnL(price int64) decimal.Decimal {
	basis, basisQty := p.Basis()
	value := p.MarketValue(price)
	if basisQty <= 0 {
		return value
	}
	cost := basis.Mul(decimal.NewFromInt(p.Quantity)).DivRound(decimal.NewFromInt(basisQty), 4)
	return value.Sub(cost)
}
