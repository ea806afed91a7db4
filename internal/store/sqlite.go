package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/social-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	handle       TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	result       TEXT NOT NULL,
	captured_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_platform_handle ON jobs(platform, handle);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_captured_at ON jobs(captured_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult appends one job record. A missing id is filled in; CapturedAt
// is expected to be set by the caller.
func (s *SQLiteStore) SaveResult(ctx context.Context, job model.JobRecord) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	resultJSON, err := json.Marshal(job.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, platform, handle, display_name, status, result, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Platform), job.Handle, job.DisplayName,
		string(job.Status), string(resultJSON), job.CapturedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert job %s", job.ID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, platform, handle, display_name, status, result, captured_at
		 FROM jobs WHERE id = ?`,
		id,
	)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.JobRecord, error) {
	query := `SELECT id, platform, handle, display_name, status, result, captured_at FROM jobs WHERE 1=1`
	var args []any

	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, string(filter.Platform))
	}
	if filter.Handle != "" {
		query += ` AND handle = ?`
		args = append(args, filter.Handle)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY captured_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.JobRecord, error) {
	var j model.JobRecord
	var resultJSON string

	err := row.Scan(&j.ID, &j.Platform, &j.Handle, &j.DisplayName, &j.Status, &resultJSON, &j.CapturedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("job not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	if err := json.Unmarshal([]byte(resultJSON), &j.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &j, nil
}
