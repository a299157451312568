// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

// SymbolItem represents a symbol in the API response.
// It contains only the public-facing fields needed by clients; price fields are omitted
// until the first tick for the symbol has been ingested.
type SymbolItem struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Price            *int64   `json:"price,omitempty"`
	DayChangePercent *float64 `json:"dayChangePercent,omitempty"`
}
