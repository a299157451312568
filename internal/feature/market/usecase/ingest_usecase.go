package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"stock_simulator/internal/shared/marketdata"
)

// DefaultIngestWorkers は取り込みワーカー数のデフォルトです。
const DefaultIngestWorkers = 4

// TickHandler はデコード済みティックを1件ずつ受け取るコールバックです。
type TickHandler func(ctx context.Context, t marketdata.PriceTick)

// TickSource はティックストリームの供給元です（Kafka, WebSocket など）。
// Run は ctx がキャンセルされるかストリームが終了するまでブロックします。
type TickSource interface {
	Run(ctx context.Context, handle TickHandler) error
}

// PriceUpdater は最新価格ストアへの書き込みを抽象化します。
type PriceUpdater interface {
	Update(t marketdata.PriceTick)
}

// CandleIngester はローソク足集計への入力を抽象化します。
type CandleIngester interface {
	Ingest(t marketdata.PriceTick) error
}

// TickIngestor はティックを最新価格ストアとローソク足集計へ振り分けます。
// 同一銘柄のティックは常に同じワーカーに渡るため、到着順に処理されます。
type TickIngestor struct {
	prices  PriceUpdater
	candles CandleIngester
	workers int
}

// NewTickIngestor は TickIngestor を生成します。workers が 0 以下の場合はデフォルト値を使います。
func NewTickIngestor(prices PriceUpdater, candles CandleIngester, workers int) *TickIngestor {
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	return &TickIngestor{prices: prices, candles: candles, workers: workers}
}

// Handle はティック1件を同期的に処理します。
func (i *TickIngestor) Handle(_ context.Context, t marketdata.PriceTick) {
	if t.Symbol == "" {
		slog.Warn("tick without symbol skipped", "eventTimeMillis", t.EventTimeMillis)
		return
	}
	i.prices.Update(t)
	if i.candles == nil {
		return
	}
	if err := i.candles.Ingest(t); err != nil {
		slog.Debug("tick not aggregated", "symbol", t.Symbol, "eventTimeMillis", t.EventTimeMillis, "error", err)
	}
}

// Run はソースからティックを読み、銘柄ハッシュでワーカーに振り分けて処理します。
// ソースが終了するとワーカーのキューを流し切ってから戻ります。
func (i *TickIngestor) Run(ctx context.Context, src TickSource) error {
	queues := make([]chan marketdata.PriceTick, i.workers)
	g, gctx := errgroup.WithContext(ctx)
	for n := range queues {
		q := make(chan marketdata.PriceTick, 256)
		queues[n] = q
		g.Go(func() error {
			for t := range q {
				i.Handle(gctx, t)
			}
			return nil
		})
	}

	err := src.Run(ctx, func(ctx context.Context, t marketdata.PriceTick) {
		q := queues[xxhash.Sum64String(t.Symbol)%uint64(len(queues))]
		select {
		case q <- t:
		case <-ctx.Done():
		}
	})
	for _, q := range queues {
		close(q)
	}
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
