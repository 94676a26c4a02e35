// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite record of conversion and merge jobs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cloudconvert/pkg/types"
)

// ErrNotFound is returned by Get for an unknown job ID.
var ErrNotFound = errors.New("job not found")

const defaultLimit = 20

// Store manages the job history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and its parent directory.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			input_format TEXT,
			output_format TEXT,
			sources TEXT,
			process_url TEXT,
			result_url TEXT,
			output TEXT,
			status TEXT NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts job. An empty ID is filled with a new UUID and a zero
// CreatedAt with the current time; both are written back to job.
func (s *Store) Record(ctx context.Context, job *types.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	sources, err := json.Marshal(job.Sources)
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, kind, input_format, output_format, sources, process_url, result_url, output, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Kind, job.InputFormat, job.OutputFormat, string(sources),
		job.ProcessURL, job.ResultURL, job.Output, string(job.Status), job.Error,
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return nil
}

const selectJobs = `SELECT id, kind, input_format, output_format, sources, process_url, result_url, output, status, error, created_at FROM jobs`

// List returns up to limit jobs, newest first. A non-positive limit means 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.Job, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, selectJobs+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Get returns the job with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Job, error) {
	row := s.db.QueryRowContext(ctx, selectJobs+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*types.Job, error) {
	var (
		job       types.Job
		sources   string
		status    string
		createdAt string
	)
	err := sc.Scan(&job.ID, &job.Kind, &job.InputFormat, &job.OutputFormat, &sources,
		&job.ProcessURL, &job.ResultURL, &job.Output, &status, &job.Error, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &job.Sources); err != nil {
		return nil, fmt.Errorf("decoding sources of job %s: %w", job.ID, err)
	}
	job.Status = types.JobStatus(status)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		job.CreatedAt = t
	}
	return &job, nil
}

// WriteYAML writes jobs to w as a YAML list.
func WriteYAML(w io.Writer, jobs []types.Job) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(jobs); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes jobs to w as an indented JSON array.
func WriteJSON(w io.Writer, jobs []types.Job) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jobs); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// WriteTable writes one line per job: time, kind, status, formats, output.
func WriteTable(w io.Writer, jobs []types.Job) error {
	for _, j := range jobs {
		output := j.Output
		if output == "" {
			output = "-"
		}
		if _, err := fmt.Fprintf(w, "%s  %-7s  %-8s  %s -> %s  %s  %s\n",
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			j.Kind, j.Status, j.InputFormat, j.OutputFormat, output, j.ID,
		); err != nil {
			return err
		}
	}
	return nil
}
