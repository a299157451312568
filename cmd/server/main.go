package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"stock_simulator/internal/app/di"
	"stock_simulator/internal/app/router"
	jwtmw "stock_simulator/internal/platform/jwt"
	"stock_simulator/internal/platform/logging"
	"stock_simulator/internal/platform/profiling"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env はローカル開発用。存在しなければ無視する
	_ = godotenv.Load()

	logger := logging.Setup(logging.LoadConfigFromEnv())

	stopProfiler, err := profiling.Start(profiling.LoadConfigFromEnv("stock-simulator-server"))
	if err != nil {
		log.Fatal(err)
	}
	defer stopProfiler()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := di.LoadAppConfigFromEnv()
	core, err := di.NewCore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer core.Close()

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		slog.Warn("JWT_SECRET is not set. Authenticated routes will return 500.")
	}

	r := router.NewRouter(di.NewHandlers(core), router.Options{
		Logger:       logger,
		OrderLimiter: di.NewOrderLimiter(cfg),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	// HTTP 停止後も Core.Run が最終 FlushAll を済ませてから戻る
	g.Go(func() error { return core.Run(gctx) })

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
