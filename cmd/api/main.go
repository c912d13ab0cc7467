package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/handlers"
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

	// 3) Set up Gin router; chart data comes from the local Parquet copy
	router := gin.Default()
	src := handlers.ParquetFile(cfg.LocalParquetPath)
	api := router.Group("/api")
	{
		api.GET("/series", handlers.SeriesHandler(src))
		api.GET("/histogram", handlers.HistogramHandler(src))
	}

	// 4) Run history needs Postgres
	if cfg.DatabaseURL != "" {
		runs, db, err := services.OpenLedger(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		api.GET("/runs", handlers.RunsHandler(runs))
	} else {
		logger.Warn("DATABASE_URL not set, /api/runs disabled")
	}

	// 5) Start HTTP server
	addr := ":" + cfg.Port
	logger.Info("starting API server", zap.String("address", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
