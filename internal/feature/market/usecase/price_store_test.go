package usecase_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_simulator/internal/feature/market/usecase"
	"stock_simulator/internal/shared/marketdata"
)

// 2026-10-14 09:00:00 KST
const baseMillis int64 = 1_791_936_000_000

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestPriceStore_GetAbsent(t *testing.T) {
	t.Parallel()

	store := usecase.NewPriceStore(nil)
	_, ok := store.Get("005930")
	assert.False(t, ok)
}

func TestPriceStore_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ticks       []marketdata.PriceTick
		wantPrice   int64
		wantVolume  uint64
		wantRef     int64
		wantPercent string
	}{
		{
			name:        "success: first tick is its own reference",
			ticks:       []marketdata.PriceTick{{Symbol: "X", Price: 100, Volume: 1, EventTimeMillis: baseMillis}},
			wantPrice:   100,
			wantVolume:  1,
			wantRef:     100,
			wantPercent: "0",
		},
		{
			name: "success: same day accumulates volume",
			ticks: []marketdata.PriceTick{
				{Symbol: "X", Price: 100, Volume: 1, EventTimeMillis: baseMillis},
				{Symbol: "X", Price: 105, Volume: 2, EventTimeMillis: baseMillis + 10_000},
			},
			wantPrice:   105,
			wantVolume:  3,
			wantRef:     100,
			wantPercent: "5",
		},
		{
			name: "success: new trading day uses previous last price",
			ticks: []marketdata.PriceTick{
				{Symbol: "X", Price: 100, Volume: 1, EventTimeMillis: baseMillis},
				{Symbol: "X", Price: 120, Volume: 4, EventTimeMillis: baseMillis + 1000},
				{Symbol: "X", Price: 90, Volume: 2, EventTimeMillis: baseMillis + 24*3600*1000},
			},
			wantPrice:   90,
			wantVolume:  2,
			wantRef:     120,
			wantPercent: "-25",
		},
		{
			name: "success: out-of-order tick still overwrites",
			ticks: []marketdata.PriceTick{
				{Symbol: "X", Price: 100, Volume: 1, EventTimeMillis: baseMillis + 5000},
				{Symbol: "X", Price: 99, Volume: 1, EventTimeMillis: baseMillis},
			},
			wantPrice:   99,
			wantVolume:  2,
			wantRef:     100,
			wantPercent: "-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := usecase.NewPriceStore(seoul(t))
			for _, tk := range tt.ticks {
				store.Update(tk)
			}

			got, ok := store.Get("X")
			require.True(t, ok)
			assert.Equal(t, tt.wantPrice, got.Price)
			assert.Equal(t, tt.wantVolume, got.CumulativeVolume)
			assert.Equal(t, tt.wantRef, got.ReferencePrice)
			assert.Equal(t, tt.wantPercent, got.DayChangePercent.String())
			assert.Equal(t, tt.ticks[len(tt.ticks)-1].EventTimeMillis, got.EventTimeMillis)
		})
	}
}

func TestPriceStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	store := usecase.NewPriceStore(nil)
	const writers, perWriter = 8, 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				store.Update(marketdata.PriceTick{
					Symbol:          fmt.Sprintf("S%d", i%4),
					Price:           int64(w*perWriter + i),
					Volume:          1,
					EventTimeMillis: baseMillis,
				})
				_, _ = store.Get("S0")
			}
		}(w)
	}
	wg.Wait()

	var total uint64
	for _, p := range store.Snapshot() {
		total += p.CumulativeVolume
	}
	// CAS ループにより同日内の出来高は失われない
	assert.Equal(t, uint64(writers*perWriter), total)
	assert.Equal(t, 4, store.Len())
}

func TestPriceStore_SnapshotAndRestore(t *testing.T) {
	t.Parallel()

	store := usecase.NewPriceStore(nil)
	store.Update(marketdata.PriceTick{Symbol: "B", Price: 2, EventTimeMillis: baseMillis})
	store.Update(marketdata.PriceTick{Symbol: "A", Price: 1, EventTimeMillis: baseMillis})

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "A", snap[0].Symbol)
	assert.Equal(t, "B", snap[1].Symbol)

	assert.False(t, store.Restore(marketdata.LatestPrice{Symbol: "A", Price: 999}), "live snapshot must win")
	assert.True(t, store.Restore(marketdata.LatestPrice{Symbol: "C", Price: 3}))
	assert.False(t, store.Restore(marketdata.LatestPrice{}))

	a, _ := store.Get("A")
	assert.Equal(t, int64(1), a.Price)
	c, ok := store.Get("C")
	require.True(t, ok)
	assert.Equal(t, int64(3), c.Price)
}
