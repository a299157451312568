package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	candleusecase "stock_simulator/internal/feature/candles/usecase"
	marketusecase "stock_simulator/internal/feature/market/usecase"
	symboladapters "stock_simulator/internal/feature/symbollist/adapters"
	symbolusecase "stock_simulator/internal/feature/symbollist/usecase"
	"stock_simulator/internal/platform/cache"
	"stock_simulator/internal/platform/calendar"
	"stock_simulator/internal/platform/db"
	platformredis "stock_simulator/internal/platform/redis"
)

// Core はサーバーとインジェストワーカーで共有する市場データ側のコンポーネントです。
type Core struct {
	Config     AppConfig
	DB         *gorm.DB
	Redis      *redis.Client // nil の場合 Redis なしで動作する
	Calendar   *calendar.Calendar
	Prices     *marketusecase.PriceStore
	Candles    *cache.CachingCandleRepository
	Aggregator *candleusecase.CandleAggregator
	Symbols    *symbolusecase.SymbolUsecase
	Ingestor   *marketusecase.TickIngestor
	Source     marketusecase.TickSource     // nil の場合ティックを取り込まない
	Mirror     *marketusecase.SnapshotMirror // nil の場合ミラーしない
	Flush      *candleusecase.FlushScheduler
}

// NewCore は環境変数の設定から Core を組み立てます。
func NewCore(ctx context.Context, cfg AppConfig) (*Core, error) {
	cal, err := calendar.New(calendar.LoadConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("market calendar: %w", err)
	}

	gdb, err := db.Open(db.LoadConfigFromEnv(), Models()...)
	if err != nil {
		return nil, err
	}
	return newCore(ctx, cfg, cal, gdb, connectRedis(ctx))
}

// connectRedis は Redis に接続します。未設定または接続失敗時は nil を返し、キャッシュなしで続行します。
func connectRedis(ctx context.Context) *redis.Client {
	rcfg := platformredis.LoadConfigFromEnv()
	if !rcfg.Enabled() {
		slog.Info("REDIS_HOST not set; running without cache and price mirror")
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, rcfg)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		return nil
	}
	return rdb
}

func newCore(ctx context.Context, cfg AppConfig, cal *calendar.Calendar, gdb *gorm.DB, rdb *redis.Client) (*Core, error) {
	c := &Core{Config: cfg, DB: gdb, Redis: rdb, Calendar: cal}

	c.Prices = marketusecase.NewPriceStore(cal.Location())
	c.Symbols = symbolusecase.NewSymbolUsecase(symboladapters.NewSymbolRepository(gdb), c.Prices)
	if cfg.SymbolSeed != "" {
		seed, err := symbolusecase.ParseSeed(cfg.SymbolSeed)
		if err != nil {
			return nil, err
		}
		if err := c.Symbols.Seed(ctx, seed); err != nil {
			return nil, err
		}
		slog.Info("symbols seeded", "count", len(seed))
	}

	c.Candles = NewCandleStore(rdb, gdb, cfg.CandleCacheTTL)
	c.Aggregator = candleusecase.NewCandleAggregator(c.Candles, candleusecase.LoadAggregatorConfigFromEnv())
	c.Ingestor = marketusecase.NewTickIngestor(c.Prices, c.Aggregator, cfg.IngestWorkers)
	c.Flush = candleusecase.NewFlushScheduler(cal, c.Aggregator)

	if repo := NewSnapshotRepository(rdb); repo != nil {
		c.Mirror = marketusecase.NewSnapshotMirror(c.Prices, repo, cfg.MirrorInterval)
	}

	src, err := NewTickSource(cfg.TickSource, c.Symbols)
	if err != nil {
		return nil, err
	}
	c.Source = src
	return c, nil
}

// Close は外部接続を閉じます。
func (c *Core) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}

// Ping は DB の疎通確認です。
func (c *Core) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PingRedis は Redis の疎通確認です。Redis を使わない構成では nil を返します。
func (c *Core) PingRedis() func(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
}

// finalFlushTimeout はシャットダウン時の最終書き込みに与える時間です。
const finalFlushTimeout = 10 * time.Second

// Run は ctx がキャンセルされるまでバックグラウンド処理を動かします。
//   - ティックの取り込み (Source が nil なら起動しない)
//   - ローソク足の書き込みループ
//   - 大引けごとの FlushAll
//   - 最新価格の Redis ミラー (Mirror が nil なら起動しない)
// 終了時は集計中のローソク足を FlushAll し、最新価格を一度ミラーします。
func (c *Core) Run(ctx context.Context) error {
	if c.Mirror != nil {
		if n, err := c.Mirror.Restore(ctx); err != nil {
			slog.Warn("failed to restore latest prices", "error", err)
		} else {
			slog.Info("latest prices restored", "count", n)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Aggregator.Run(gctx) })
	g.Go(func() error { return c.Flush.Run(gctx) })
	if c.Mirror != nil {
		g.Go(func() error { return c.Mirror.Run(gctx) })
	}
	if c.Source != nil {
		g.Go(func() error { return c.Ingestor.Run(gctx, c.Source) })
	} else {
		slog.Info("TICK_SOURCE=none; tick ingestion disabled")
	}
	err := g.Wait()

	// 取り込み停止後に残りを書き出す
	fctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	if n, ferr := c.Aggregator.FlushAll(fctx); ferr != nil {
		slog.Error("final candle flush incomplete", "flushed", n, "pending", c.Aggregator.Pending(), "error", ferr)
	}
	if c.Mirror != nil {
		if perr := c.Mirror.Publish(fctx); perr != nil {
			slog.Warn("final price mirror failed", "error", perr)
		}
	}
	return err
}
