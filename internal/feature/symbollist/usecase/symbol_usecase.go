// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"stock_simulator/internal/feature/symbollist/domain/entity"
	"stock_simulator/internal/shared/marketdata"
)

// DefaultMarket is the listing venue assigned to seeded symbols.
const DefaultMarket = "KRX"

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, symbols []entity.Symbol) error
}

// PriceReader reads the latest known price of a symbol.
type PriceReader interface {
	Get(symbol string) (marketdata.LatestPrice, bool)
}

// SymbolQuote is an active symbol together with its latest price, if any tick has arrived.
type SymbolQuote struct {
	entity.Symbol
	Price    marketdata.LatestPrice
	HasPrice bool
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo   SymbolRepository
	prices PriceReader
}

// NewSymbolUsecase creates a new SymbolUsecase. prices may be nil, in which case no quote is attached.
func NewSymbolUsecase(r SymbolRepository, prices PriceReader) *SymbolUsecase {
	return &SymbolUsecase{repo: r, prices: prices}
}

// ListActiveSymbols returns all active symbols, each joined with its latest price.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]SymbolQuote, error) {
	symbols, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolQuote, 0, len(symbols))
	for _, s := range symbols {
		q := SymbolQuote{Symbol: s}
		if u.prices != nil {
			q.Price, q.HasPrice = u.prices.Get(s.Code)
		}
		out = append(out, q)
	}
	return out, nil
}

// ListActiveCodes returns the codes the tick feed should subscribe to.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// Seed registers the given symbols, keeping their order as the sort key.
func (u *SymbolUsecase) Seed(ctx context.Context, symbols []entity.Symbol) error {
	for i := range symbols {
		if symbols[i].Market == "" {
			symbols[i].Market = DefaultMarket
		}
		if symbols[i].SortKey == 0 {
			symbols[i].SortKey = i + 1
		}
		symbols[i].IsActive = true
	}
	if err := u.repo.Upsert(ctx, symbols); err != nil {
		return fmt.Errorf("seed symbols: %w", err)
	}
	return nil
}

// ParseSeed parses "CODE:Name,CODE:Name" (the SYMBOL_SEED format). A bare CODE uses the code as its name.
func ParseSeed(s string) ([]entity.Symbol, error) {
	var out []entity.Symbol
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, name, _ := strings.Cut(part, ":")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("symbol seed %q: empty code", part)
		}
		if seen[code] {
			return nil, fmt.Errorf("symbol seed: duplicate code %q", code)
		}
		seen[code] = true
		if name == "" {
			name = code
		}
		out = append(out, entity.Symbol{Code: code, Name: name})
	}
	return out, nil
}
