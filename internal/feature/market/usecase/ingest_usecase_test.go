package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_simulator/internal/feature/market/usecase"
	"stock_simulator/internal/shared/marketdata"
)

// mockPriceUpdater は受け取ったティックを記録します。
type mockPriceUpdater struct {
	mu    sync.Mutex
	ticks []marketdata.PriceTick
}

func (m *mockPriceUpdater) Update(t marketdata.PriceTick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, t)
}

// mockCandleIngester は IngestFunc を呼び出し、銘柄ごとの到着順を記録します。
type mockCandleIngester struct {
	mu         sync.Mutex
	IngestFunc func(t marketdata.PriceTick) error
	bySymbol   map[string][]int64
}

func (m *mockCandleIngester) Ingest(t marketdata.PriceTick) error {
	m.mu.Lock()
	if m.bySymbol == nil {
		m.bySymbol = map[string][]int64{}
	}
	m.bySymbol[t.Symbol] = append(m.bySymbol[t.Symbol], t.EventTimeMillis)
	m.mu.Unlock()
	if m.IngestFunc != nil {
		return m.IngestFunc(t)
	}
	return nil
}

// sliceSource は固定のティック列を流すソースです。
type sliceSource struct {
	ticks []marketdata.PriceTick
	err   error
}

func (s *sliceSource) Run(ctx context.Context, handle usecase.TickHandler) error {
	for _, t := range s.ticks {
		handle(ctx, t)
	}
	return s.err
}

func TestTickIngestor_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tick        marketdata.PriceTick
		ingestErr   error
		wantPrices  int
		wantCandles int
	}{
		{
			name:        "success: tick goes to both consumers",
			tick:        marketdata.PriceTick{Symbol: "X", Price: 100, Volume: 1},
			wantPrices:  1,
			wantCandles: 1,
		},
		{
			name:        "success: aggregation error does not stop price update",
			tick:        marketdata.PriceTick{Symbol: "X", Price: 100, Volume: 1},
			ingestErr:   errors.New("late tick"),
			wantPrices:  1,
			wantCandles: 1,
		},
		{
			name:        "error: tick without symbol is skipped",
			tick:        marketdata.PriceTick{Price: 100},
			wantPrices:  0,
			wantCandles: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prices := &mockPriceUpdater{}
			candles := &mockCandleIngester{IngestFunc: func(marketdata.PriceTick) error { return tt.ingestErr }}
			ing := usecase.NewTickIngestor(prices, candles, 2)

			ing.Handle(context.Background(), tt.tick)

			assert.Len(t, prices.ticks, tt.wantPrices)
			total := 0
			for _, v := range candles.bySymbol {
				total += len(v)
			}
			assert.Equal(t, tt.wantCandles, total)
		})
	}
}

func TestTickIngestor_Run_PreservesPerSymbolOrder(t *testing.T) {
	t.Parallel()

	var ticks []marketdata.PriceTick
	for i := 0; i < 300; i++ {
		ticks = append(ticks, marketdata.PriceTick{
			Symbol:          fmt.Sprintf("S%d", i%7),
			Price:           int64(i),
			Volume:          1,
			EventTimeMillis: int64(i),
		})
	}

	prices := &mockPriceUpdater{}
	candles := &mockCandleIngester{}
	ing := usecase.NewTickIngestor(prices, candles, 3)

	err := ing.Run(context.Background(), &sliceSource{ticks: ticks})
	require.NoError(t, err)

	assert.Len(t, prices.ticks, len(ticks))
	require.Len(t, candles.bySymbol, 7)
	for sym, times := range candles.bySymbol {
		assert.IsIncreasing(t, times, "symbol %s must keep arrival order", sym)
	}
}

func TestTickIngestor_Run_SourceError(t *testing.T) {
	t.Parallel()

	srcErr := errors.New("broker unreachable")
	ing := usecase.NewTickIngestor(&mockPriceUpdater{}, &mockCandleIngester{}, 0)

	err := ing.Run(context.Background(), &sliceSource{err: srcErr})
	assert.ErrorIs(t, err, srcErr)
}

func TestTickIngestor_Run_CanceledIsClean(t *testing.T) {
	t.Parallel()

	ing := usecase.NewTickIngestor(&mockPriceUpdater{}, nil, 1)
	err := ing.Run(context.Background(), &sliceSource{err: context.Canceled})
	assert.NoError(t, err)
}
