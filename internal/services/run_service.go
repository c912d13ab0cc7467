package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/chart"
	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/email"
	"github.com/innatolkaneva/weather/internal/pipeline"
	"github.com/innatolkaneva/weather/internal/repository"
	"github.com/innatolkaneva/weather/internal/storage"
	"github.com/innatolkaneva/weather/internal/weather"
)

// ErrRunInProgress is returned when a run is requested while another one
// has not finished yet.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes a single pipeline pass.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// RunService serializes pipeline runs.
type RunService interface {
	RunNow(ctx context.Context) (pipeline.Result, error)
}

type runService struct {
	runner Runner
	mu     sync.Mutex
	logger *zap.Logger
}

func NewRunService(runner Runner, logger *zap.Logger) RunService {
	return &runService{runner: runner, logger: logger}
}

// RunNow runs the pipeline unless a run is already going, in which case it
// returns ErrRunInProgress immediately.
func (s *runService) RunNow(ctx context.Context) (pipeline.Result, error) {
	if !s.mu.TryLock() {
		s.logger.Warn("run skipped, previous run still in progress")
		return pipeline.Result{}, ErrRunInProgress
	}
	defer s.mu.Unlock()
	return s.runner.Run(ctx)
}

// Deps holds everything a pipeline needs, built from config.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Runs     repository.RunRepository

	fs storage.FileSystem
	db *sqlx.DB
}

// Close releases the remote filesystem and the ledger connection.
func (d *Deps) Close() error {
	var errs []error
	if d.fs != nil {
		errs = append(errs, d.fs.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}

// BuildPipeline wires the fetcher, the remote filesystem, the chart
// renderer and, when configured, the run ledger and the report sender.
// Ledger and report setup failures are logged and the pipeline runs
// without them.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	fetcher, err := weather.BuildFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}
	fs, err := storage.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("remote filesystem: %w", err)
	}

	deps := &Deps{fs: fs}
	opts := []pipeline.Option{pipeline.WithVisualizer(chart.NewRenderer(logger))}

	if cfg.DatabaseURL != "" {
		if runs, db, err := OpenLedger(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Warn("run ledger disabled", zap.Error(err))
		} else {
			deps.Runs, deps.db = runs, db
			opts = append(opts, pipeline.WithRunRepository(runs))
		}
	}

	if cfg.ReportEnabled() {
		sender, err := email.NewSMTPSender(cfg, logger)
		if err != nil {
			logger.Warn("run report disabled", zap.Error(err))
		} else {
			opts = append(opts, pipeline.WithReportSender(sender))
		}
	}

	collector := weather.NewCollector(fetcher, cfg.RequestDelay, logger)
	deps.Pipeline = pipeline.New(cfg, collector, fs, logger, opts...)
	return deps, nil
}

// OpenLedger connects to Postgres and makes sure the runs table exists.
func OpenLedger(ctx context.Context, dsn string, logger *zap.Logger) (repository.RunRepository, *sqlx.DB, error) {
	db, err := repository.OpenDB(dsn)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	runs := repository.NewRunRepository(db, logger)
	if err := runs.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure runs schema: %w", err)
	}
	return runs, db, nil
}
