// Package snapshot は最新価格スナップショットの Redis 実装を提供します。
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"stock_simulator/internal/feature/market/usecase"
	"stock_simulator/internal/shared/marketdata"
)

// DefaultKey はスナップショットを格納する Redis ハッシュのキーです。
const DefaultKey = "prices:latest"

// priceRecord は Redis に保存する JSON の形式です。
type priceRecord struct {
	Symbol           string          `json:"symbol"`
	Price            int64           `json:"price"`
	DayChangePercent decimal.Decimal `json:"dayChangePercent"`
	EventTimeMillis  int64           `json:"eventTimeMillis"`
	CumulativeVolume uint64          `json:"cumulativeVolume"`
	ReferencePrice   int64           `json:"referencePrice"`
	TradingDay       string          `json:"tradingDay"`
}

// priceSnapshotRedis は銘柄コードをフィールドとするハッシュにスナップショットを保存します。
type priceSnapshotRedis struct {
	client *redis.Client
	key    string
}

var _ usecase.SnapshotRepository = (*priceSnapshotRedis)(nil)

// NewPriceSnapshotRedis は Redis 実装の SnapshotRepository を生成します。key が空の場合は DefaultKey を使います。
func NewPriceSnapshotRedis(client *redis.Client, key string) *priceSnapshotRedis {
	if key == "" {
		key = DefaultKey
	}
	return &priceSnapshotRedis{client: client, key: key}
}

// SaveAll はスナップショットをまとめて HSET します。
func (r *priceSnapshotRedis) SaveAll(ctx context.Context, prices []marketdata.LatestPrice) error {
	if len(prices) == 0 {
		return nil
	}
	values := make([]any, 0, len(prices)*2)
	for _, p := range prices {
		b, err := json.Marshal(priceRecord(p))
		if err != nil {
			return fmt.Errorf("marshal snapshot %s: %w", p.Symbol, err)
		}
		values = append(values, p.Symbol, b)
	}
	return r.client.HSet(ctx, r.key, values...).Err()
}

// LoadAll は保存済みのスナップショットをすべて読み込みます。壊れたエントリは読み飛ばします。
func (r *priceSnapshotRedis) LoadAll(ctx context.Context) ([]marketdata.LatestPrice, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]marketdata.LatestPrice, 0, len(fields))
	for sym, raw := range fields {
		var rec priceRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			slog.Warn("corrupted price snapshot skipped", "symbol", sym, "error", err)
			continue
		}
		out = append(out, marketdata.LatestPrice(rec))
	}
	return out, nil
}
