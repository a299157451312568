// Package domain holds the pure cost-basis arithmetic of the trading feature.
package domain

import "github.com/shopspring/decimal"

// AvgCostPlaces is the number of decimal places kept for average cost.
const AvgCostPlaces = 4

// CostBasisPlaces is the precision of a cost basis rescaled after a partial sell.
const CostBasisPlaces = 8

// NewAvgCost returns the weighted average cost after buying buyQty units at buyPrice:
// (oldQty*oldAvg + buyQty*buyPrice) / (oldQty + buyQty).
// When the resulting quantity is not positive the average is zero.
func NewAvgCost(oldQty int64, oldAvg decimal.Decimal, buyQty, buyPrice int64) decimal.Decimal {
	basis, basisQty := AddToBasis(oldAvg.Mul(decimal.NewFromInt(oldQty)), oldQty, oldQty, buyQty, buyPrice)
	return AvgCostOf(basis, basisQty)
}

// AddToBasis は取得原価 basis (basisQty 株分) に buyQty 株 @ buyPrice の買付を加えます。
// basis / basisQty が正確な平均取得単価です。売却で保有 heldQty が basisQty を下回っている場合は
// 先に heldQty 株分へ縮尺してから加算します。売却だけでは basis は変わりません。
func AddToBasis(basis decimal.Decimal, basisQty, heldQty, buyQty, buyPrice int64) (decimal.Decimal, int64) {
	if heldQty <= 0 || basisQty <= 0 {
		basis, basisQty = decimal.Zero, 0
	} else if heldQty != basisQty {
		basis = basis.Mul(decimal.NewFromInt(heldQty)).DivRound(decimal.NewFromInt(basisQty), CostBasisPlaces)
		basisQty = heldQty
	}
	bought := decimal.NewFromInt(buyPrice).Mul(decimal.NewFromInt(buyQty))
	return basis.Add(bought), basisQty + buyQty
}

// AvgCostOf は取得原価から表示用の平均取得単価を返します。
func AvgCostOf(basis decimal.Decimal, basisQty int64) decimal.Decimal {
	if basisQty <= 0 {
		return decimal.Zero
	}
	return basis.DivRound(decimal.NewFromInt(basisQty), AvgCostPlaces)
}

// RealizedPnL は取得原価 basis (basisQty 株分) の保有を price で qty 売却したときの実現損益を返します。
// price*qty - basis*qty/basisQty
func RealizedPnL(basis decimal.Decimal, basisQty, qty, price int64) decimal.Decimal {
	proceeds := decimal.NewFromInt(price).Mul(decimal.NewFromInt(qty))
	if basisQty <= 0 {
		return proceeds
	}
	cost := basis.Mul(decimal.NewFromInt(qty)).DivRound(decimal.NewFromInt(basisQty), AvgCostPlaces)
	return proceeds.Sub(cost)
}
