package dto

// AccountResponse は口座残高のレスポンスDTOです。
type AccountResponse struct {
	MemberID uint  `json:"memberId"`
	Balance  int64 `json:"balance"`
}

// PositionItem は評価済みポジションです。金額は小数を含むため文字列で返します。
type PositionItem struct {
	Symbol         string `json:"symbol"`
	Quantity       int64  `json:"quantity"`
	AvgCost        string `json:"avgCost"`
	LastPrice      int64  `json:"lastPrice"`
	PriceAvailable bool   `json:"priceAvailable"`
	MarketValue    string `json:"marketValue"`
	UnrealizedPnL  string `json:"unrealizedPnl"`
}

// PortfolioResponse はポートフォリオ評価のレスポンスDTOです。
type PortfolioResponse struct {
	Cash          int64          `json:"cash"`
	MarketValue   string         `json:"marketValue"`
	UnrealizedPnL string         `json:"unrealizedPnl"`
	TotalEquity   string         `json:"totalEquity"`
	Positions     []PositionItem `json:"positions"`
}

// TradeItem は約定履歴の1件です。
type TradeItem struct {
	ID               string `json:"id"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	Quantity         int64  `json:"quantity"`
	ExecutionPrice   int64  `json:"executionPrice"`
	ExecutedAtMillis int64  `json:"executedAtMillis"`
	RealizedPnL      string `json:"realizedPnl"`
}
