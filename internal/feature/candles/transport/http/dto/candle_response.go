package dto

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time              string `json:"time"`              // バケット開始時刻 (RFC3339, UTC)
	BucketStartMillis int64  `json:"bucketStartMillis"` // バケット開始時刻 (epoch ms)
	Open              int64  `json:"open"`              // 始値
	High              int64  `json:"high"`              // 高値
	Low               int64  `json:"low"`               // 安値
	Close             int64  `json:"close"`             // 終値
	Volume            uint64 `json:"volume"`            // 出来高
	TickCount         int64  `json:"tickCount"`
}

// FlushResponse は集計中ローソク足の強制確定結果です。
type FlushResponse struct {
	Flushed int    `json:"flushed"`
	Error   string `json:"error,omitempty"`
}
