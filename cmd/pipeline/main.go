package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/services"
)

func main() {
	// 1) Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Initialize structured logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	// 3) Cancel the run on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4) Wire fetcher, remote filesystem, charts, ledger and report
	deps, err := services.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize pipeline", zap.Error(err))
	}

	// 5) One pass; only a failed remote write is fatal
	res, err := deps.Pipeline.Run(ctx)
	if cerr := deps.Close(); cerr != nil {
		logger.Warn("failed to release resources", zap.Error(cerr))
	}
	if err != nil {
		logger.Fatal("run failed", zap.String("run_id", res.RunID.String()), zap.Error(err))
	}
}
