package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/pipeline"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context) (pipeline.Result, error) {
	close(b.started)
	<-b.release
	return pipeline.Result{Requested: 1}, nil
}

func TestRunService_RejectsOverlappingRuns(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewRunService(runner, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunNow(context.Background())
		done <- err
	}()
	<-runner.started

	if _, err := svc.RunNow(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("RunNow() error = %v, want %v", err, ErrRunInProgress)
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first RunNow() unexpected error: %v", err)
	}
}

func TestBuildPipeline_LocalRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dt := r.URL.Query().Get("dt")
		fmt.Fprintf(w, `{"forecast":{"forecastday":[{"date":%q,"day":{"avgtemp_c":4.2}}]}}`, dt)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		WeatherAPIComKey: "test-key",
		HistoryURL:       srv.URL,
		Cities:           []string{"Moscow"},
		RemoteFS:         "local",
		RemoteLocalDir:   filepath.Join(dir, "remote"),
		RemotePath:       "/user/inna/weather_data.parquet",
		LocalCSVPath:     filepath.Join(dir, "weather_data.csv"),
		LocalParquetPath: filepath.Join(dir, "weather_data.parquet"),
		LineChartPath:    filepath.Join(dir, "line.png"),
		HistogramPath:    filepath.Join(dir, "hist.png"),
	}

	deps, err := BuildPipeline(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildPipeline() unexpected error: %v", err)
	}
	defer deps.Close()

	if deps.Runs != nil {
		t.Error("run ledger enabled without DATABASE_URL")
	}

	res, err := deps.Pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if res.Requested != config.WindowDays+1 || res.Dataset.Len() != res.Requested {
		t.Errorf("requested %d, fetched %d, want %d of each", res.Requested, res.Dataset.Len(), config.WindowDays+1)
	}
	for _, path := range []string{cfg.LocalCSVPath, cfg.LocalParquetPath, cfg.LineChartPath, cfg.HistogramPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}
}

func TestBuildPipeline_MissingKey(t *testing.T) {
	_, err := BuildPipeline(context.Background(), &config.Config{RemoteFS: "local"}, zap.NewNop())
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("BuildPipeline() error = %v, want %v", err, config.ErrMissingAPIKey)
	}
}

func TestBuildPipeline_UnreachableNamenodeFailsTheWrite(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprintf(w, `{"forecast":{"forecastday":[{"date":%q,"day":{"avgtemp_c":1.5}}]}}`, r.URL.Query().Get("dt"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		WeatherAPIComKey: "test-key",
		HistoryURL:       srv.URL,
		Cities:           []string{"Belgorod"},
		RemoteFS:         "hdfs",
		HDFSHost:         "127.0.0.1",
		HDFSPort:         1,
		HDFSUser:         "inna",
		RemotePath:       "/user/inna/weather_data.parquet",
		LocalCSVPath:     filepath.Join(dir, "weather_data.csv"),
		LocalParquetPath: filepath.Join(dir, "weather_data.parquet"),
	}

	deps, err := BuildPipeline(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildPipeline() unexpected error: %v", err)
	}
	defer deps.Close()

	res, err := deps.Pipeline.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected a write error, got nil")
	}
	if got := int(requests.Load()); got != config.WindowDays+1 {
		t.Errorf("history requests = %d, want %d", got, config.WindowDays+1)
	}
	if res.Status() != "write_failed" {
		t.Errorf("Status() = %s, want write_failed", res.Status())
	}
}
