package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"stock_simulator/internal/feature/candles/domain/entity"
	"stock_simulator/internal/shared/marketdata"
)

// ErrLateTick は既に確定したバケットに属するティックを表します。
var ErrLateTick = errors.New("late tick dropped")

// CandleSink は確定したローソク足の書き込み先です。
// (symbol, bucketStartMillis) をキーに冪等に保存することが求められます。
type CandleSink interface {
	Write(ctx context.Context, c entity.Candle) error
}

// AggregatorConfig はローソク足集計の設定です。
type AggregatorConfig struct {
	Shards        int
	RetryInterval time.Duration
	WriteTimeout  time.Duration
	// PendingLimit を超えた未書き込みローソク足は古いものから破棄され、エラーログが出ます。
	PendingLimit int
}

// DefaultAggregatorConfig はデフォルト設定を返します。
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Shards:        32,
		RetryInterval: 5 * time.Second,
		WriteTimeout:  3 * time.Second,
		PendingLimit:  100_000,
	}
}

// LoadAggregatorConfigFromEnv は環境変数から設定を読み込みます。未設定や不正な値はデフォルトのままです。
func LoadAggregatorConfigFromEnv() AggregatorConfig {
	cfg := DefaultAggregatorConfig()
	if n, err := strconv.Atoi(os.Getenv("CANDLE_SHARDS")); err == nil && n > 0 {
		cfg.Shards = n
	}
	if d, err := time.ParseDuration(os.Getenv("CANDLE_RETRY_INTERVAL")); err == nil && d > 0 {
		cfg.RetryInterval = d
	}
	if d, err := time.ParseDuration(os.Getenv("CANDLE_WRITE_TIMEOUT")); err == nil && d > 0 {
		cfg.WriteTimeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("CANDLE_PENDING_LIMIT")); err == nil && n > 0 {
		cfg.PendingLimit = n
	}
	return cfg
}

// symbolState は1銘柄分の集計状態です。
type symbolState struct {
	open *entity.Candle
	// closedThrough は最後に確定させたバケットの開始時刻です（closed が true の場合のみ有効）。
	closedThrough int64
	closed        bool
}

type candleShard struct {
	mu      sync.Mutex
	symbols map[string]*symbolState
}

// CandleAggregator はティックを銘柄ごとの1分足に集計します。
// 銘柄はハッシュでシャードに割り当てられ、同一銘柄の更新はシャードのロックで直列化されます。
// 確定したローソク足は保留キューに積まれ、書き込みは Run / Drain が行います。
type CandleAggregator struct {
	shards []*candleShard
	sink   CandleSink
	cfg    AggregatorConfig

	pendingMu sync.Mutex
	pending   []entity.Candle
	notify    chan struct{}
}

// NewCandleAggregator は CandleAggregator を生成します。
func NewCandleAggregator(sink CandleSink, cfg AggregatorConfig) *CandleAggregator {
	def := DefaultAggregatorConfig()
	if cfg.Shards <= 0 {
		cfg.Shards = def.Shards
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PendingLimit <= 0 {
		cfg.PendingLimit = def.PendingLimit
	}
	shards := make([]*candleShard, cfg.Shards)
	for i := range shards {
		shards[i] = &candleShard{symbols: make(map[string]*symbolState)}
	}
	return &CandleAggregator{
		shards: shards,
		sink:   sink,
		cfg:    cfg,
		notify: make(chan struct{}, 1),
	}
}

func (a *CandleAggregator) shardFor(symbol string) *candleShard {
	return a.shards[xxhash.Sum64String(symbol)%uint64(len(a.shards))]
}

// Ingest はティックを銘柄の現在のローソク足に反映します。
// 後続バケットのティックが来ると現在のローソク足を確定して保留キューに積みます。
// 確定済みバケットに属するティックは破棄され ErrLateTick を返します。
func (a *CandleAggregator) Ingest(t marketdata.PriceTick) error {
	bucket := marketdata.BucketStart(t.EventTimeMillis)
	sh := a.shardFor(t.Symbol)

	sh.mu.Lock()
	st, ok := sh.symbols[t.Symbol]
	if !ok {
		st = &symbolState{}
		sh.symbols[t.Symbol] = st
	}

	var completed *entity.Candle
	switch {
	case st.open == nil && st.closed && bucket <= st.closedThrough,
		st.open != nil && bucket < st.open.BucketStartMillis:
		sh.mu.Unlock()
		slog.Warn("late tick dropped", "symbol", t.Symbol, "eventTimeMillis", t.EventTimeMillis, "bucket", bucket)
		return ErrLateTick
	case st.open == nil:
		c := entity.NewCandle(t)
		st.open = &c
	case bucket == st.open.BucketStartMillis:
		st.open.Fold(t)
	default:
		completed = st.open
		st.closedThrough, st.closed = completed.BucketStartMillis, true
		c := entity.NewCandle(t)
		st.open = &c
	}
	sh.mu.Unlock()

	if completed != nil {
		a.enqueue(*completed)
	}
	return nil
}

// Open は銘柄の集計中のローソク足を返します。
func (a *CandleAggregator) Open(symbol string) (entity.Candle, bool) {
	sh := a.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	st, ok := sh.symbols[symbol]
	if !ok || st.open == nil {
		return entity.Candle{}, false
	}
	return *st.open, true
}

func (a *CandleAggregator) enqueue(cs ...entity.Candle) {
	if len(cs) == 0 {
		return
	}
	a.pendingMu.Lock()
	a.pending = append(a.pending, cs...)
	if over := len(a.pending) - a.cfg.PendingLimit; over > 0 {
		for _, c := range a.pending[:over] {
			slog.Error("candle discarded: pending queue full", "symbol", c.Symbol, "bucketStartMillis", c.BucketStartMillis)
		}
		a.pending = append([]entity.Candle(nil), a.pending[over:]...)
	}
	a.pendingMu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Pending は書き込み待ちのローソク足の件数を返します。
func (a *CandleAggregator) Pending() int {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	return len(a.pending)
}

// Drain は保留中のローソク足をすべて書き込みます。
// 失敗したものはキューに戻り、次回の Drain で再試行されます。
func (a *CandleAggregator) Drain(ctx context.Context) error {
	a.pendingMu.Lock()
	batch := a.pending
	a.pending = nil
	a.pendingMu.Unlock()

	var (
		failed []entity.Candle
		errs   []error
	)
	for i, c := range batch {
		if ctx.Err() != nil {
			failed = append(failed, batch[i:]...)
			errs = append(errs, ctx.Err())
			break
		}
		wctx, cancel := context.WithTimeout(ctx, a.cfg.WriteTimeout)
		err := a.sink.Write(wctx, c)
		cancel()
		if err != nil {
			slog.Error("failed to write candle", "symbol", c.Symbol, "bucketStartMillis", c.BucketStartMillis, "error", err)
			failed = append(failed, c)
			errs = append(errs, fmt.Errorf("write candle %s@%d: %w", c.Symbol, c.BucketStartMillis, err))
		}
	}

	if len(failed) > 0 {
		a.pendingMu.Lock()
		a.pending = append(failed, a.pending...)
		a.pendingMu.Unlock()
	}
	return errors.Join(errs...)
}

// FlushAll はバケットの完了を待たずに全銘柄の集計中ローソク足を確定させ、書き込みます。
// 確定させた件数を返します。書き込みに失敗したローソク足は保留キューに残ります。
func (a *CandleAggregator) FlushAll(ctx context.Context) (int, error) {
	var flushed []entity.Candle
	for _, sh := range a.shards {
		sh.mu.Lock()
		for _, st := range sh.symbols {
			if st.open == nil || st.open.TickCount == 0 {
				continue
			}
			flushed = append(flushed, *st.open)
			st.closedThrough, st.closed = st.open.BucketStartMillis, true
			st.open = nil
		}
		sh.mu.Unlock()
	}
	a.enqueue(flushed...)

	if err := a.Drain(ctx); err != nil {
		return len(flushed), err
	}
	if len(flushed) > 0 {
		slog.Info("flushed open candles", "count", len(flushed))
	}
	return len(flushed), nil
}

// Run は ctx がキャンセルされるまで保留キューを書き込み続けます。
// 新しく確定したローソク足があるとき、または RetryInterval ごとに Drain します。
func (a *CandleAggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.notify:
		case <-ticker.C:
		}
		// エラーは Drain 内でログ出力済みで、失敗分は次回再試行される
		_ = a.Drain(ctx)
	}
}
