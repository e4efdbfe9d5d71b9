// Package journal keeps an audit trail of fan-out deliveries in Postgres.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/fanout"
)

// Row is one stored delivery.
type Row struct {
	UserID      int64          `db:"user_id"`
	Title       string         `db:"title"`
	Category    string         `db:"category"`
	Destination string         `db:"destination"`
	Kind        string         `db:"kind"`
	OK          bool           `db:"ok"`
	Error       sql.NullString `db:"error"`
	CreatedAt   time.Time      `db:"created_at"`
}

const insertDeliveries = `INSERT INTO deliveries
	(user_id, title, category, destination, kind, ok, error, created_at)
VALUES
	(:user_id, :title, :category, :destination, :kind, :ok, :error, :created_at)`

// maxErrorLen bounds the stored error text.
const maxErrorLen = 512

// Postgres records dispatch reports into the deliveries table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres returns a recorder writing through db.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Record stores one row per delivery of r in a single transaction.
func (p *Postgres) Record(ctx context.Context, r fanout.Report) error {
	rows := Rows(r)
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, insertDeliveries, rows); err != nil {
		return fmt.Errorf("journal: insert deliveries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}

	logger.Debug(ctx, "journal", "record",
		slog.Int64("user_id", r.UserID),
		slog.String("category", string(r.Category)),
		slog.Int("count", len(rows)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Rows converts a report into the rows stored for it.
func Rows(r fanout.Report) []Row {
	created := r.StartedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC()

	rows := make([]Row, 0, len(r.Deliveries))
	for _, d := range r.Deliveries {
		row := Row{
			UserID:      r.UserID,
			Title:       r.Submission.Title,
			Category:    string(r.Category),
			Destination: string(d.Destination),
			Kind:        string(d.Kind),
			OK:          d.Err == nil,
			CreatedAt:   created,
		}
		if d.Err != nil {
			row.Error = sql.NullString{String: logger.SanitizeLimit(d.Err.Error(), maxErrorLen), Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}
