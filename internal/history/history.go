package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// driver is the database/sql driver name registered by modernc.org/sqlite.
const driver = "sqlite"

// Entry is one recorded render outcome.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	JobID      string    `db:"job_id" json:"jobId"`
	Tool       string    `db:"tool" json:"tool"`
	Input      string    `db:"input" json:"input,omitempty"`
	Output     string    `db:"output" json:"output,omitempty"`
	Status     string    `db:"status" json:"status"`
	Error      string    `db:"error" json:"error,omitempty"`
	ExitCode   int       `db:"exit_code" json:"exitCode"`
	DurationMS int64     `db:"duration_ms" json:"durationMs"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Store is a sqlite-backed ledger of completed renders.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the ledger at path and migrates its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sqlx.Open(driver, "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if err := Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one render outcome to the ledger.
func (s *Store) Record(ctx context.Context, e Entry) error {
	const stmt = `INSERT INTO renders (job_id, tool, input, output, status, error, exit_code, duration_ms, created_at)
		VALUES (:job_id, :tool, :input, :output, :status, :error, :exit_code, :duration_ms, :created_at)`

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NamedExecContext(ctx, stmt, e); err != nil {
		return fmt.Errorf("record render: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []Entry
	const stmt = `SELECT id, job_id, tool, input, output, status, error, exit_code, duration_ms, created_at
		FROM renders ORDER BY id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &out, stmt, limit); err != nil {
		return nil, fmt.Errorf("query render history: %w", err)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
