package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/document"
)

//go:embed schema.sql
var schemaSQL string

// Journal is the durable record of pipeline runs: one row per
// document with its status progression, chosen parse path and item
// count, plus one row per item outcome. It exists for observability;
// the external system remains the source of truth for idempotency.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed creates) the journal database.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Start records a newly accepted document.
func (j *Journal) Start(ctx context.Context, doc document.RawDocument) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO document_runs (id, filename, format, status) VALUES (?, ?, ?, ?)`,
		doc.ID.String(), doc.Filename, doc.Format, string(constants.JobStatusQueued))
	if err != nil {
		return fmt.Errorf("journal start: %w", err)
	}
	return nil
}

// SetStatus advances a run's status.
func (j *Journal) SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE document_runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("journal set status: %w", err)
	}
	return nil
}

// Finish records the terminal state of a run plus its report details.
func (j *Journal) Finish(ctx context.Context, id uuid.UUID, status constants.JobStatus, rep document.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal finish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`UPDATE document_runs SET status = ?, parse_path = ?, item_count = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), rep.ParsePath, rep.ExtractedCount, rep.Error, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("journal finish: %w", err)
	}
	for _, r := range rep.Results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_outcomes (run_id, item_code, status, message) VALUES (?, ?, ?, ?)`,
			id.String(), r.ItemCode, r.Status, r.Message); err != nil {
			return fmt.Errorf("journal outcome: %w", err)
		}
	}
	return tx.Commit()
}

// Run is one journal row.
type Run struct {
	ID        string
	Filename  string
	Format    string
	Status    constants.JobStatus
	ParsePath string
	ItemCount int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, filename, format, status, parse_path, item_count, error, created_at, updated_at
		 FROM document_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var status, created, updated string
		if err := rows.Scan(&r.ID, &r.Filename, &r.Format, &status, &r.ParsePath,
			&r.ItemCount, &r.Error, &created, &updated); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		r.Status = constants.JobStatus(status)
		r.CreatedAt = parseTimestamp(created)
		r.UpdatedAt = parseTimestamp(updated)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// parseTimestamp handles both sqlite CURRENT_TIMESTAMP text and the
// RFC 3339 values the driver writes for time.Time parameters.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
