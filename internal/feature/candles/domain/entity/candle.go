// Package entity defines the domain models for the candles feature.
package entity

import "stock_simulator/internal/shared/marketdata"

// Candle is a one-minute OHLCV summary for a symbol.
// It is mutable while its bucket is open and immutable once emitted.
type Candle struct {
	Symbol            string
	BucketStartMillis int64 // floor(eventTime / 60000) * 60000
	Open              int64
	High              int64
	Low               int64
	Close             int64
	Volume            uint64
	TickCount         int64
}

// NewCandle opens a candle from the first tick of a bucket.
func NewCandle(t marketdata.PriceTick) Candle {
	return Candle{
		Symbol:            t.Symbol,
		BucketStartMillis: marketdata.BucketStart(t.EventTimeMillis),
		Open:              t.Price,
		High:              t.Price,
		Low:               t.Price,
		Close:             t.Price,
		Volume:            t.Volume,
		TickCount:         1,
	}
}

// Fold applies a tick that belongs to the same bucket. Open is never changed.
func (c *Candle) Fold(t marketdata.PriceTick) {
	c.High = max(c.High, t.Price)
	c.Low = min(c.Low, t.Price)
	c.Close = t.Price
	c.Volume += t.Volume
	c.TickCount++
}
