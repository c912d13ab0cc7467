package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Run statuses.
const (
	StatusRunning         = "running"
	StatusSucceeded       = "succeeded"
	StatusRoundTripFailed = "roundtrip_failed"
	StatusWriteFailed     = "write_failed"
	StatusCancelled       = "cancelled"
)

type Run struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Cities     string     `db:"cities" json:"cities"` // comma separated
	Requested  int        `db:"requested" json:"requested"`
	Fetched    int        `db:"fetched" json:"fetched"`
	RemotePath string     `db:"remote_path" json:"remote_path"`
	Status     string     `db:"status" json:"status"`
	Error      string     `db:"error" json:"error,omitempty"`
}

// RunRepository records one row per pipeline run.
type RunRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, run Run) error
	Finish(ctx context.Context, id uuid.UUID, fetched int, status, errMsg string) error
	List(ctx context.Context, limit int) ([]Run, error)
}

type pgRepo struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRunRepository(db *sqlx.DB, logger *zap.Logger) RunRepository {
	return &pgRepo{db: db, logger: logger}
}

func (r *pgRepo) EnsureSchema(ctx context.Context) error {
	const q = `
        CREATE TABLE IF NOT EXISTS runs (
            id          UUID PRIMARY KEY,
            started_at  TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ,
            cities      TEXT        NOT NULL,
            requested   INTEGER     NOT NULL,
            fetched     INTEGER     NOT NULL DEFAULT 0,
            remote_path TEXT        NOT NULL,
            status      TEXT        NOT NULL,
            error       TEXT        NOT NULL DEFAULT ''
        );
    `
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		r.logger.Error("failed to create runs table", zap.Error(err))
		return err
	}
	return nil
}

func (r *pgRepo) Create(ctx context.Context, run Run) error {
	const q = `
        INSERT INTO runs (id, started_at, cities, requested, remote_path, status)
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	_, err := r.db.ExecContext(ctx, q, run.ID, run.StartedAt, run.Cities, run.Requested, run.RemotePath, run.Status)
	if err != nil {
		r.logger.Error("failed to create run",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return err
	}
	r.logger.Debug("run created", zap.String("run_id", run.ID.String()), zap.Int("requested", run.Requested))
	return nil
}

func (r *pgRepo) Finish(ctx context.Context, id uuid.UUID, fetched int, status, errMsg string) error {
	const q = `
        UPDATE runs
        SET finished_at = now(),
            fetched     = $2,
            status      = $3,
            error       = $4
        WHERE id = $1;
    `
	res, err := r.db.ExecContext(ctx, q, id, fetched, status, errMsg)
	if err != nil {
		r.logger.Error("failed to finish run", zap.String("run_id", id.String()), zap.Error(err))
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected on finish", zap.Error(err))
		return err
	}
	if n == 0 {
		r.logger.Warn("run not found", zap.String("run_id", id.String()))
		return sql.ErrNoRows
	}
	r.logger.Info("run finished", zap.String("run_id", id.String()), zap.String("status", status))
	return nil
}

func (r *pgRepo) List(ctx context.Context, limit int) ([]Run, error) {
	const q = `
        SELECT * FROM runs
        ORDER BY started_at DESC
        LIMIT $1;
    `
	var runs []Run
	if err := r.db.SelectContext(ctx, &runs, q, limit); err != nil {
		r.logger.Error("failed to list runs", zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed runs", zap.Int("limit", limit), zap.Int("count", len(runs)))
	return runs, nil
}
