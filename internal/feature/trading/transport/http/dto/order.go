package dto

// OrderRequest は成行注文のリクエストDTOです。
type OrderRequest struct {
	Symbol   string `json:"symbol" binding:"required,symbol"`
	Quantity int64  `json:"quantity"`
}

// OrderResponse は注文の執行結果のレスポンスDTOです。
type OrderResponse struct {
	Executed       bool   `json:"executed"`
	ExecutionPrice int64  `json:"executionPrice"`
	Message        string `json:"message"`
	TradeID        string `json:"tradeId,omitempty"`
}
