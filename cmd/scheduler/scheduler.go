package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/services"
)

func main() {
	// 1) Load config (includes SCHEDULE)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Init logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) Wire the pipeline once; every tick reuses it
	deps, err := services.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize pipeline", zap.Error(err))
	}
	defer deps.Close()

	runs := services.NewRunService(deps.Pipeline, logger)

	// 4) Build cron (standard 5-field, minute resolution)
	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		res, err := runs.RunNow(ctx)
		switch {
		case errors.Is(err, services.ErrRunInProgress):
		case err != nil:
			// a failed write ends this run only; the next tick tries again
			logger.Error("scheduled run failed", zap.String("run_id", res.RunID.String()), zap.Error(err))
		default:
			logger.Info("scheduled run done",
				zap.String("run_id", res.RunID.String()),
				zap.String("status", res.Status()),
				zap.Int("fetched", res.Dataset.Len()),
			)
		}
	})
	if err != nil {
		logger.Fatal("unable to schedule cron job", zap.String("cronSpec", cfg.Schedule), zap.Error(err))
	}

	logger.Info("starting scheduler", zap.String("cronSpec", cfg.Schedule))
	c.Start()

	// block until a signal, then wait for the running job
	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
}
