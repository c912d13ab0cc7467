// Package pipeline runs one fetch -> assemble -> chart -> persist -> round
// trip pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/chart"
	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/dataset"
	"github.com/innatolkaneva/weather/internal/email"
	"github.com/innatolkaneva/weather/internal/repository"
	"github.com/innatolkaneva/weather/internal/storage"
	"github.com/innatolkaneva/weather/internal/weather"
)

// Visualizer draws the two charts of a run.
type Visualizer interface {
	RenderLine(series []chart.Series, path string) error
	RenderHistogram(hists []chart.CityHistogram, path string) error
}

// Result is the outcome of a run. WriteErr is fatal and is also returned by
// Run; it holds the context error when the run was cancelled before the
// dataset was persisted. RoundTripErr is recovered and only reported here.
type Result struct {
	RunID        uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	Requested    int
	Dataset      dataset.Dataset
	WriteErr     error
	RoundTripErr error
}

// Status maps the result onto a ledger status.
func (r Result) Status() string {
	switch {
	case errors.Is(r.WriteErr, context.Canceled):
		return repository.StatusCancelled
	case r.WriteErr != nil:
		return repository.StatusWriteFailed
	case r.RoundTripErr != nil:
		return repository.StatusRoundTripFailed
	default:
		return repository.StatusSucceeded
	}
}

func (r Result) errMsg() string {
	switch {
	case r.WriteErr != nil:
		return r.WriteErr.Error()
	case r.RoundTripErr != nil:
		return r.RoundTripErr.Error()
	default:
		return ""
	}
}

type Pipeline struct {
	cfg       *config.Config
	collector *weather.Collector
	fs        storage.FileSystem
	charts    Visualizer
	runs      repository.RunRepository
	reports   email.Sender
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*Pipeline)

// WithVisualizer enables chart rendering.
func WithVisualizer(v Visualizer) Option { return func(p *Pipeline) { p.charts = v } }

// WithRunRepository records every run in the ledger.
func WithRunRepository(r repository.RunRepository) Option { return func(p *Pipeline) { p.runs = r } }

// WithReportSender mails a summary of every run to cfg.ReportTo.
func WithReportSender(s email.Sender) Option { return func(p *Pipeline) { p.reports = s } }

// WithClock overrides time.Now, which decides the history window.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func New(cfg *config.Config, collector *weather.Collector, fs storage.FileSystem, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		collector: collector,
		fs:        fs,
		now:       time.Now,
		logger:    logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one pass. It returns an error only when the dataset could not
// be persisted to the remote filesystem (or ctx was cancelled before that);
// in that case the round trip is skipped and no local copies are written.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.New(), StartedAt: p.now()}
	window := p.cfg.Window(res.StartedAt)
	res.Requested = len(p.cfg.Cities) * len(window.Days())

	logger := p.logger.With(zap.String("run_id", res.RunID.String()))
	logger.Info("run started",
		zap.Strings("cities", p.cfg.Cities),
		zap.String("from", window.Start.Format("2006-01-02")),
		zap.String("to", window.End.Format("2006-01-02")),
	)
	p.recordStart(ctx, res)

	records, err := p.collector.Collect(ctx, p.cfg.Cities, window)
	if err != nil {
		res.WriteErr = fmt.Errorf("collect: %w", err)
		return p.finish(ctx, logger, res), res.WriteErr
	}

	res.Dataset = dataset.Assemble(records)
	p.visualize(logger, res.Dataset)

	if err := p.Persist(ctx, res.Dataset); err != nil {
		res.WriteErr = err
		logger.Error("failed to save data to remote", zap.String("path", p.cfg.RemotePath), zap.Error(err))
		return p.finish(ctx, logger, res), err
	}

	if _, err := p.RoundTrip(ctx); err != nil {
		res.RoundTripErr = err
		logger.Error("failed to load data from remote", zap.String("path", p.cfg.RemotePath), zap.Error(err))
	}

	return p.finish(ctx, logger, res), nil
}

// Persist writes ds to the remote path as Parquet, replacing what was there.
func (p *Pipeline) Persist(ctx context.Context, ds dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := p.fs.Create(p.cfg.RemotePath)
	if err != nil {
		return fmt.Errorf("open remote %s: %w", p.cfg.RemotePath, err)
	}
	if err := dataset.WriteParquet(w, ds); err != nil {
		w.Close()
		return fmt.Errorf("write remote %s: %w", p.cfg.RemotePath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close remote %s: %w", p.cfg.RemotePath, err)
	}
	p.logger.Info("data saved to remote", zap.String("path", p.cfg.RemotePath), zap.Int("rows", ds.Len()))
	return nil
}

// RoundTrip reads the remote Parquet file back and writes the local CSV and
// Parquet copies.
func (p *Pipeline) RoundTrip(ctx context.Context) (dataset.Dataset, error) {
	f, err := p.fs.Open(p.cfg.RemotePath)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("open remote %s: %w", p.cfg.RemotePath, err)
	}
	ds, err := dataset.ReadParquet(ctx, f)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close remote %s: %w", p.cfg.RemotePath, cerr)
	}
	if err != nil {
		return dataset.Dataset{}, err
	}

	err = storage.WriteFilesAtomic(
		storage.FileWrite{Path: p.cfg.LocalCSVPath, Write: func(w io.Writer) error { return dataset.WriteCSV(w, ds) }},
		storage.FileWrite{Path: p.cfg.LocalParquetPath, Write: func(w io.Writer) error { return dataset.WriteParquet(w, ds) }},
	)
	if err != nil {
		return ds, err
	}
	p.logger.Info("files saved locally",
		zap.String("csv", p.cfg.LocalCSVPath),
		zap.String("parquet", p.cfg.LocalParquetPath),
		zap.Int("rows", ds.Len()),
	)
	return ds, nil
}

func (p *Pipeline) visualize(logger *zap.Logger, ds dataset.Dataset) {
	if p.charts == nil {
		return
	}
	if path := p.cfg.LineChartPath; path != "" {
		if err := p.charts.RenderLine(chart.LineSeries(ds, p.cfg.Cities), path); err != nil {
			logger.Warn("line chart failed", zap.Error(err))
		}
	}
	if path := p.cfg.HistogramPath; path != "" {
		if err := p.charts.RenderHistogram(chart.Histogram(ds, p.cfg.Cities, chart.HistogramBins), path); err != nil {
			logger.Warn("histogram failed", zap.Error(err))
		}
	}
}

func (p *Pipeline) recordStart(ctx context.Context, res Result) {
	if p.runs == nil {
		return
	}
	err := p.runs.Create(ctx, repository.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		Cities:     strings.Join(p.cfg.Cities, ","),
		Requested:  res.Requested,
		RemotePath: p.cfg.RemotePath,
		Status:     repository.StatusRunning,
	})
	if err != nil {
		p.logger.Warn("run ledger unavailable", zap.Error(err))
	}
}

func (p *Pipeline) finish(ctx context.Context, logger *zap.Logger, res Result) Result {
	res.FinishedAt = p.now()
	status := res.Status()
	logger.Info("run finished",
		zap.String("status", status),
		zap.Int("requested", res.Requested),
		zap.Int("fetched", res.Dataset.Len()),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)

	// the run context may already be cancelled; bookkeeping should still land
	bg := context.WithoutCancel(ctx)

	if p.runs != nil {
		if err := p.runs.Finish(bg, res.RunID, res.Dataset.Len(), status, res.errMsg()); err != nil {
			logger.Warn("failed to record run", zap.Error(err))
		}
	}
	if p.reports != nil && len(p.cfg.ReportTo) > 0 {
		var local []string
		if status == repository.StatusSucceeded {
			local = []string{p.cfg.LocalCSVPath, p.cfg.LocalParquetPath}
		}
		msg := email.RunReport(p.cfg.ReportTo, email.RunSummary{
			RunID:       res.RunID.String(),
			Status:      status,
			StartedAt:   res.StartedAt,
			FinishedAt:  res.FinishedAt,
			Requested:   res.Requested,
			Fetched:     res.Dataset.Len(),
			Cities:      p.cfg.Cities,
			PerCity:     res.Dataset.CountByCity(),
			RemotePath:  p.cfg.RemotePath,
			Error:       res.errMsg(),
			LocalOutput: local,
		})
		if err := p.reports.Send(msg); err != nil {
			logger.Warn("failed to send run report", zap.Error(err))
		}
	}
	return res
}
