package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the final state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one journal entry.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	InputPath   string
	Feature     string
	Transform   string
	OutputPath  string
	SidecarPath string
	CacheHit    bool
	CacheMiss   string
	Frames      int
	Transformed int
	Status      Status
	Error       string
	TempPath    string
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = `id, started_at, finished_at, input_path, feature, transform, output_path,
	sidecar_path, cache_hit, cache_miss, frames, transformed, status, error, temp_path`

// Record inserts run, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("history: nil run")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = StatusFailed
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
			run.InputPath,
			run.Feature,
			run.Transform,
			run.OutputPath,
			run.SidecarPath,
			boolToInt(run.CacheHit),
			run.CacheMiss,
			run.Frames,
			run.Transformed,
			string(run.Status),
			run.Error,
			run.TempPath,
		)
		return err
	})
}

// List returns the most recent runs first. limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                 Run
		startedAt, finished string
		cacheHit            int
		status              string
	)
	if err := sc.Scan(
		&run.ID,
		&startedAt,
		&finished,
		&run.InputPath,
		&run.Feature,
		&run.Transform,
		&run.OutputPath,
		&run.SidecarPath,
		&cacheHit,
		&run.CacheMiss,
		&run.Frames,
		&run.Transformed,
		&status,
		&run.Error,
		&run.TempPath,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finished)
	run.CacheHit = cacheHit != 0
	run.Status = Status(status)
	return run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
