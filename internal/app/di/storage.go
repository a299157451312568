package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	candleadapters "stock_simulator/internal/feature/candles/adapters"
	"stock_simulator/internal/feature/market/adapters/snapshot"
	marketusecase "stock_simulator/internal/feature/market/usecase"
	symbolentity "stock_simulator/internal/feature/symbollist/domain/entity"
	tradingadapters "stock_simulator/internal/feature/trading/adapters"
	"stock_simulator/internal/platform/cache"
)

// Models は AutoMigrate の対象となる全テーブルのモデルです。
func Models() []any {
	models := []any{&symbolentity.Symbol{}, &candleadapters.CandleModel{}}
	return append(models, tradingadapters.Models()...)
}

// NewCandleStore はローソク足の永続化先を生成します。
// Redis が利用可能なら読み取りキャッシュでラップし、nil の場合キャッシュは素通りします。
func NewCandleStore(rdb *redis.Client, db *gorm.DB, ttl time.Duration) *cache.CachingCandleRepository {
	return cache.NewCachingCandleRepository(rdb, ttl, candleadapters.NewCandleRepository(db), "candles")
}

// NewSnapshotRepository は最新価格のミラー先を返します。Redis がない場合は nil です。
func NewSnapshotRepository(rdb *redis.Client) marketusecase.SnapshotRepository {
	if rdb == nil {
		return nil
	}
	return snapshot.NewPriceSnapshotRedis(rdb, snapshot.DefaultKey)
}
