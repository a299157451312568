package di

import (
	"time"

	"stock_simulator/internal/app/router"
	candleshandler "stock_simulator/internal/feature/candles/transport/handler"
	candleusecase "stock_simulator/internal/feature/candles/usecase"
	markethandler "stock_simulator/internal/feature/market/transport/handler"
	symbollisthandler "stock_simulator/internal/feature/symbollist/transport/handler"
	tradingadapters "stock_simulator/internal/feature/trading/adapters"
	tradinghandler "stock_simulator/internal/feature/trading/transport/handler"
	tradingusecase "stock_simulator/internal/feature/trading/usecase"
	"stock_simulator/internal/platform/http/handler"
	"stock_simulator/internal/shared/ratelimiter"
)

// NewHandlers は注文・口座・参照APIのハンドラーを Core の上に組み立てます。
func NewHandlers(c *Core) router.Handlers {
	ledger := tradingadapters.NewLedgerMySQL(c.DB)
	tcfg := tradingusecase.LoadConfigFromEnv()

	orders := tradingusecase.NewOrderUsecase(c.Prices, c.Calendar, ledger, nil, tcfg)
	portfolio := tradingusecase.NewPortfolioUsecase(ledger, c.Prices, tcfg.InitialCash)
	candles := candleusecase.NewCandlesUsecase(c.Candles, c.Aggregator)

	return router.Handlers{
		Orders:   tradinghandler.NewOrderHandler(orders),
		Accounts: tradinghandler.NewAccountHandler(portfolio),
		Prices:   markethandler.NewPriceHandler(c.Prices),
		Symbols:  symbollisthandler.NewSymbolHandler(c.Symbols),
		Candles:  candleshandler.NewCandlesHandler(candles, c.Aggregator, c.Calendar),
		Ready: handler.NewReadiness(map[string]handler.Checker{
			"db":    c.Ping,
			"redis": c.PingRedis(),
		}),
	}
}

// NewOrderLimiter は ORDER_RATE_LIMIT に従う会員ごとの注文レート制限を返します。0 の場合は nil です。
func NewOrderLimiter(cfg AppConfig) ratelimiter.Limiter {
	if cfg.OrderRateLimit <= 0 {
		return nil
	}
	return ratelimiter.NewRateLimiter(cfg.OrderRateLimit, time.Minute)
}
