package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dashboard-fill/internal/db"
	"github.com/sells-group/dashboard-fill/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a small connection pool.
// A fill run is a single writer, so the pool stays small.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	template   TEXT NOT NULL,
	output     TEXT NOT NULL,
	dry_run    BOOLEAN NOT NULL DEFAULT false,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_periods (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	round      INTEGER NOT NULL,
	sheet      TEXT NOT NULL,
	status     TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS period_records (
	id     BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	round  INTEGER NOT NULL,
	metric TEXT NOT NULL,
	firm   TEXT NOT NULL,
	value  DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_periods_run_id ON run_periods(run_id);
CREATE INDEX IF NOT EXISTS idx_period_records_run_round ON period_records(run_id, round);
`

var recordColumns = []string{"run_id", "round", "metric", "firm", "value"}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, template, output string, dryRun bool) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, template, output, dry_run, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, template, output, dryRun, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Template:  template,
		Output:    output,
		DryRun:    dryRun,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var status string

	err := s.pool.QueryRow(ctx,
		`SELECT id, template, output, dry_run, status, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Template, &r.Output, &r.DryRun, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	r.Status = model.RunStatus(status)

	rows, err := s.pool.Query(ctx,
		`SELECT result FROM run_periods WHERE run_id = $1 ORDER BY round`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list periods for run %s", runID)
	}
	defer rows.Close()

	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan period")
		}
		var p model.PeriodResult
		if err := json.Unmarshal(resultJSON, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal period")
		}
		r.Periods = append(r.Periods, p)
	}
	return &r, eris.Wrap(rows.Err(), "postgres: list periods iterate")
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, template, output, dry_run, status, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limitOrDefault(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &r.Template, &r.Output, &r.DryRun, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SavePeriod stores the period summary and bulk-copies its records in one transaction.
func (s *PostgresStore) SavePeriod(ctx context.Context, runID string, period model.PeriodResult, records []model.Record) error {
	resultJSON, err := json.Marshal(period)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal period")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO run_periods (id, run_id, round, sheet, status, result, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), runID, period.Round, period.Sheet, string(period.Status), resultJSON, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert period for run %s", runID)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{runID, period.Round, rec.Metric, rec.Firm, rec.Value})
	}
	if _, err := db.CopyFrom(ctx, tx, "period_records", recordColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: copy records for run %s", runID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit period")
}

func (s *PostgresStore) ListRecords(ctx context.Context, runID string, round int) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT metric, firm, value FROM period_records WHERE run_id = $1 AND round = $2 ORDER BY id`,
		runID, round,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.Metric, &rec.Firm, &rec.Value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list records iterate")
}
