// Command ingest runs the tick feed, candle aggregation and price mirror without the order API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stock_simulator/internal/app/di"
	"stock_simulator/internal/platform/logging"
	"stock_simulator/internal/platform/profiling"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(logging.LoadConfigFromEnv())

	stopProfiler, err := profiling.Start(profiling.LoadConfigFromEnv("stock-simulator-ingest"))
	if err != nil {
		log.Fatal(err)
	}
	defer stopProfiler()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := di.LoadAppConfigFromEnv()
	if cfg.TickSource == di.TickSourceNone {
		log.Fatal("TICK_SOURCE must be kafka or websocket for the ingest worker")
	}
	core, err := di.NewCore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer core.Close()

	slog.Info("ingest worker started", "source", cfg.TickSource, "workers", cfg.IngestWorkers)
	if err := core.Run(ctx); err != nil {
		slog.Error("ingest worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingest worker stopped")
}
