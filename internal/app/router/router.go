package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	candleshandler "stock_simulator/internal/feature/candles/transport/handler"
	markethandler "stock_simulator/internal/feature/market/transport/handler"
	symbollisthandler "stock_simulator/internal/feature/symbollist/transport/handler"
	tradinghandler "stock_simulator/internal/feature/trading/transport/handler"
	"stock_simulator/internal/platform/http/handler"
	"stock_simulator/internal/platform/http/middleware"
	jwtmw "stock_simulator/internal/platform/jwt"
	"stock_simulator/internal/platform/validation"
	"stock_simulator/internal/shared/ratelimiter"
)

// Handlers はルーターに登録するハンドラーの一式です。
type Handlers struct {
	Orders   *tradinghandler.OrderHandler
	Accounts *tradinghandler.AccountHandler
	Prices   *markethandler.PriceHandler
	Symbols  *symbollisthandler.SymbolHandler
	Candles  *candleshandler.CandlesHandler
	Ready    *handler.Readiness
}

// Options はミドルウェアの設定です。
type Options struct {
	Logger *slog.Logger
	// OrderLimiter が nil の場合、注文のレート制限は行いません。
	OrderLimiter ratelimiter.Limiter
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	// 注文DTOの binding:"symbol" タグを有効にする
	if err := validation.Register(); err != nil {
		slog.Error("failed to register validators", "error", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	if h.Ready != nil {
		r.GET("/readyz", h.Ready.Ready)
	}

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired())
	{
		orders := auth.Group("/orders")
		if opts.OrderLimiter != nil {
			orders.Use(middleware.RateLimit(opts.OrderLimiter))
		}
		orders.POST("/buy", h.Orders.Buy)
		orders.POST("/sell", h.Orders.Sell)

		auth.POST("/accounts", h.Accounts.Open)
		auth.GET("/accounts/me", h.Accounts.Me)
		auth.GET("/portfolio", h.Accounts.Portfolio)
		auth.GET("/trades", h.Accounts.Trades)

		auth.GET("/prices", h.Prices.List)
		auth.GET("/prices/:symbol", h.Prices.Get)
		auth.GET("/symbols", h.Symbols.List)
		auth.GET("/candles/:code", h.Candles.GetCandlesHandler)

		auth.POST("/admin/candles/flush", h.Candles.Flush)
	}

	return r
}
