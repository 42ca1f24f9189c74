package conversionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a conversion log does not exist.
var ErrNotFound = errors.New("conversion log not found")

const schema = `
CREATE TABLE IF NOT EXISTS conversion_logs (
	id                 BIGSERIAL PRIMARY KEY,
	original_filename  TEXT NOT NULL,
	output_filename    TEXT,
	status             TEXT NOT NULL,
	error_message      TEXT,
	segment_count      INTEGER,
	source             TEXT NOT NULL,
	timestamp          TIMESTAMPTZ NOT NULL,
	processing_time_ms BIGINT
)`

// Repository stores conversion logs in Postgres.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Migrate creates the conversion_logs table when it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate conversion_logs: %w", err)
	}
	return nil
}

// Save inserts the log and fills in its generated ID.
func (r *Repository) Save(ctx context.Context, entry *ConversionLog) error {
	const query = `
		INSERT INTO conversion_logs
			(original_filename, output_filename, status, error_message,
			 segment_count, source, timestamp, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		entry.OriginalFilename, entry.OutputFilename, entry.Status,
		entry.ErrorMessage, entry.SegmentCount, entry.Source,
		entry.Timestamp, entry.ProcessingTimeMs,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to save conversion log: %w", err)
	}

	r.log.Debug().
		Int64("id", entry.ID).
		Str("status", string(entry.Status)).
		Str("originalFilename", entry.OriginalFilename).
		Msg("Saved conversion log")
	return nil
}

// List returns one page of logs, newest first, plus the total row count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]ConversionLog, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM conversion_logs`); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversion logs: %w", err)
	}

	const query = `
		SELECT id, original_filename, output_filename, status, error_message,
		       segment_count, source, timestamp, processing_time_ms
		FROM conversion_logs
		ORDER BY timestamp DESC
		LIMIT $1 OFFSET $2`

	logs := make([]ConversionLog, 0, limit)
	if err := r.db.SelectContext(ctx, &logs, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list conversion logs: %w", err)
	}
	return logs, total, nil
}

// Get returns one log by ID, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (*ConversionLog, error) {
	const query = `
		SELECT id, original_filename, output_filename, status, error_message,
		       segment_count, source, timestamp, processing_time_ms
		FROM conversion_logs
		WHERE id = $1`

	var entry ConversionLog
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversion log %d: %w", id, err)
	}
	return &entry, nil
}

// Stats aggregates totals and the success rate over the whole history.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	const query = `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'SUCCESS') AS success,
		       COUNT(*) FILTER (WHERE status = 'ERROR') AS error
		FROM conversion_logs`

	var row struct {
		Total   int64 `db:"total"`
		Success int64 `db:"success"`
		Error   int64 `db:"error"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate conversion stats: %w", err)
	}

	stats := &Stats{
		Total:       row.Total,
		Success:     row.Success,
		Error:       row.Error,
		SuccessRate: "0%",
	}
	if row.Total > 0 {
		stats.SuccessRate = fmt.Sprintf("%.2f%%", float64(row.Success)*100/float64(row.Total))
	}
	return stats, nil
}
