// Package di provides dependency injection factories for creating application components.
package di

import (
	"os"
	"strconv"
	"strings"
	"time"

	marketusecase "stock_simulator/internal/feature/market/usecase"
)

const (
	TickSourceKafka     = "kafka"
	TickSourceWebSocket = "websocket"
	TickSourceNone      = "none"
)

// AppConfig はプロセス全体の配線に関する設定です。各コンポーネント固有の設定はそれぞれのパッケージが読みます。
type AppConfig struct {
	HTTPAddr       string
	TickSource     string
	IngestWorkers  int
	MirrorInterval time.Duration
	CandleCacheTTL time.Duration
	// OrderRateLimit は会員ごとの1分あたりの注文上限です。0 で無制限。
	OrderRateLimit int
	SymbolSeed     string
}

// LoadAppConfigFromEnv は環境変数から AppConfig を読み込みます。
func LoadAppConfigFromEnv() AppConfig {
	cfg := AppConfig{
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		TickSource:     strings.ToLower(os.Getenv("TICK_SOURCE")),
		IngestWorkers:  marketusecase.DefaultIngestWorkers,
		MirrorInterval: marketusecase.DefaultMirrorInterval,
		CandleCacheTTL: time.Minute,
		OrderRateLimit: 60,
		SymbolSeed:     os.Getenv("SYMBOL_SEED"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.TickSource == "" {
		cfg.TickSource = TickSourceNone
	}
	if n, err := strconv.Atoi(os.Getenv("INGEST_WORKERS")); err == nil && n > 0 {
		cfg.IngestWorkers = n
	}
	if d, err := time.ParseDuration(os.Getenv("PRICE_MIRROR_INTERVAL")); err == nil && d > 0 {
		cfg.MirrorInterval = d
	}
	if d, err := time.ParseDuration(os.Getenv("CANDLE_CACHE_TTL")); err == nil && d > 0 {
		cfg.CandleCacheTTL = d
	}
	if n, err := strconv.Atoi(os.Getenv("ORDER_RATE_LIMIT")); err == nil && n >= 0 {
		cfg.OrderRateLimit = n
	}
	return cfg
}
