// Package marketdata はティックと最新価格のスナップショットを定義します。
// market / candles / trading の各フィーチャーから共有される値型のみを置きます。
package marketdata

import "github.com/shopspring/decimal"

// BucketWidthMillis はローソク足1本の幅（ミリ秒）です。
const BucketWidthMillis int64 = 60_000

// PriceTick はデコード済みの約定ティックです。
type PriceTick struct {
	Symbol          string
	Price           int64
	Volume          uint64
	EventTimeMillis int64
}

// LatestPrice は銘柄ごとの最新価格スナップショットです。
// 一度公開されたスナップショットは変更されません。
type LatestPrice struct {
	Symbol           string
	Price            int64
	DayChangePercent decimal.Decimal
	EventTimeMillis  int64
	CumulativeVolume uint64
	// ReferencePrice は騰落率の基準となる前営業日の最終価格です。
	ReferencePrice int64
	// TradingDay は EventTimeMillis を市場タイムゾーンで日付化したもの (YYYY-MM-DD) です。
	TradingDay string
}

// BucketStart は時刻 ms を含むバケットの開始時刻を返します。負の時刻でも床関数として振る舞います。
func BucketStart(ms int64) int64 {
	b := ms / BucketWidthMillis
	if ms%BucketWidthMillis < 0 {
		b--
	}
	return b * BucketWidthMillis
}
