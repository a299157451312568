// Package dto は market フィーチャーの HTTP レスポンス DTO を定義します。
package dto

import "stock_simulator/internal/shared/marketdata"

// PriceResponse は最新価格のレスポンスDTOです。
type PriceResponse struct {
	Symbol           string  `json:"symbol"`
	Price            int64   `json:"price"`
	DayChangePercent float64 `json:"dayChangePercent"`
	EventTimeMillis  int64   `json:"eventTimeMillis"`
	CumulativeVolume uint64  `json:"cumulativeVolume"`
}

// NewPriceResponse はスナップショットをDTOに変換します。
func NewPriceResponse(p marketdata.LatestPrice) PriceResponse {
	return PriceResponse{
		Symbol:           p.Symbol,
		Price:            p.Price,
		DayChangePercent: p.DayChangePercent.InexactFloat64(),
		EventTimeMillis:  p.EventTimeMillis,
		CumulativeVolume: p.CumulativeVolume,
	}
}
