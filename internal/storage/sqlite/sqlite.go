package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/storage"
	"github.com/slok/devrig/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun stores a run with all its step outcomes and check results.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runStarted, runFinished, verStarted, verFinished *int64
	if run.Report != nil {
		runStarted, runFinished = unixPtr(run.Report.StartedAt), unixPtr(run.Report.FinishedAt)
	}
	if run.Verification != nil {
		verStarted, verFinished = unixPtr(run.Verification.StartedAt), unixPtr(run.Verification.FinishedAt)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, mode, created_at,
			run_started_at, run_finished_at,
			verification_started_at, verification_finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Mode, run.CreatedAt.Unix(), runStarted, runFinished, verStarted, verFinished)
	if err != nil {
		return fmt.Errorf("could not insert run: %w", err)
	}

	if run.Report != nil {
		for i, o := range run.Report.Outcomes {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO run_outcomes (run_id, seq, step_id, description, status, reason, diagnostic, duration_ms)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, i, o.StepID, o.Description, o.Status, o.Reason, o.Diagnostic, o.Duration.Milliseconds())
			if err != nil {
				return fmt.Errorf("could not insert run outcome: %w", err)
			}
		}
	}

	if run.Verification != nil {
		for i, c := range run.Verification.Results {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO run_checks (run_id, seq, step_id, description, satisfied, reason, diagnostic)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, run.ID, i, c.StepID, c.Description, c.Satisfied, c.Reason, c.Diagnostic)
			if err != nil {
				return fmt.Errorf("could not insert run check: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)

	return nil
}

// GetRun retrieves a run by ID with all its step outcomes and check results.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, mode, created_at,
			run_started_at, run_finished_at,
			verification_started_at, verification_finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run with id %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	if err := r.loadRunDetails(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns returns stored runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, opts storage.ListRunsOpts) ([]model.Run, error) {
	query := `
		SELECT id, mode, created_at,
			run_started_at, run_finished_at,
			verification_started_at, verification_finished_at
		FROM runs ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate runs: %w", err)
	}

	for i := range runs {
		if err := r.loadRunDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *Repository) loadRunDetails(ctx context.Context, run *model.Run) error {
	if run.Report != nil {
		rows, err := r.db.QueryContext(ctx, `
			SELECT step_id, description, status, reason, diagnostic, duration_ms
			FROM run_outcomes WHERE run_id = ? ORDER BY seq
		`, run.ID)
		if err != nil {
			return fmt.Errorf("could not get run outcomes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var o model.RunOutcome
			var durationMS int64
			if err := rows.Scan(&o.StepID, &o.Description, &o.Status, &o.Reason, &o.Diagnostic, &durationMS); err != nil {
				return fmt.Errorf("could not scan run outcome: %w", err)
			}
			o.Duration = time.Duration(durationMS) * time.Millisecond
			run.Report.Outcomes = append(run.Report.Outcomes, o)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("could not iterate run outcomes: %w", err)
		}
	}

	if run.Verification != nil {
		rows, err := r.db.QueryContext(ctx, `
			SELECT step_id, description, satisfied, reason, diagnostic
			FROM run_checks WHERE run_id = ? ORDER BY seq
		`, run.ID)
		if err != nil {
			return fmt.Errorf("could not get run checks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c model.CheckResult
			if err := rows.Scan(&c.StepID, &c.Description, &c.Satisfied, &c.Reason, &c.Diagnostic); err != nil {
				return fmt.Errorf("could not scan run check: %w", err)
			}
			run.Verification.Results = append(run.Verification.Results, c)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("could not iterate run checks: %w", err)
		}
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*model.Run, error) {
	var run model.Run
	var createdAt int64
	var runStarted, runFinished, verStarted, verFinished *int64

	err := s.Scan(&run.ID, &run.Mode, &createdAt, &runStarted, &runFinished, &verStarted, &verFinished)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if runStarted != nil && runFinished != nil {
		run.Report = &model.RunReport{
			StartedAt:  time.Unix(*runStarted, 0).UTC(),
			FinishedAt: time.Unix(*runFinished, 0).UTC(),
		}
	}
	if verStarted != nil && verFinished != nil {
		run.Verification = &model.VerificationReport{
			StartedAt:  time.Unix(*verStarted, 0).UTC(),
			FinishedAt: time.Unix(*verFinished, 0).UTC(),
		}
	}

	return &run, nil
}

func unixPtr(t time.Time) *int64 {
	u := t.Unix()
	return &u
}
