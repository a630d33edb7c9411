// Package postgres implements the integrity repositories on PostgreSQL with
// database/sql and lib/pq. Every query runs on the transaction carried by the
// context when there is one.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
	"counsel/internal/storage"
	txcontext "counsel/pkg/platform/tx"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// forUpdate locks the row read by FindByID when the read runs inside a
// transaction, so a following conditional write sees the value it checked.
func forUpdate(ctx context.Context) string {
	if _, ok := txcontext.From(ctx); ok {
		return " FOR UPDATE"
	}
	return ""
}

// queryOne runs a single-row query, mapping sql.ErrNoRows to storage.ErrNotFound.
func queryOne[T any](ctx context.Context, db *sql.DB, kind models.EntityType, id string, scan func(rowScanner) (T, error), query string, args ...any) (T, error) {
	v, err := scan(txcontext.Pick(ctx, db).QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, storage.NotFound(kind, id)
		}
		return zero, fmt.Errorf("find %s: %w", kind, err)
	}
	return v, nil
}

func queryMany[T any](ctx context.Context, db *sql.DB, kind models.EntityType, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := txcontext.Pick(ctx, db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return out, nil
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, db *sql.DB, kind models.EntityType, id string, query string, args ...any) error {
	res, err := txcontext.Pick(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if n == 0 {
		return storage.NotFound(kind, id)
	}
	return nil
}

func exec(ctx context.Context, db *sql.DB, kind models.EntityType, query string, args ...any) error {
	if _, err := txcontext.Pick(ctx, db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	return nil
}

// Stores groups one repository per entity type over a shared handle.
type Stores struct {
	Staff        *StaffStore
	Cases        *CaseStore
	Applications *ApplicationStore
	Jobs         *JobStore
	Retainers    *RetainerStore
	Feedback     *FeedbackStore
	Reminders    *ReminderStore
}

func New(db *sql.DB) *Stores {
	return &Stores{
		Staff:        &StaffStore{db: db},
		Cases:        &CaseStore{db: db},
		Applications: &ApplicationStore{db: db},
		Jobs:         &JobStore{db: db},
		Retainers:    &RetainerStore{db: db},
		Feedback:     &FeedbackStore{db: db},
		Reminders:    &ReminderStore{db: db},
	}
}

// Ports exposes the repositories through the integrity engine's contracts.
func (s *Stores) Ports() ports.Stores {
	return ports.Stores{
		Staff:        s.Staff,
		Cases:        s.Cases,
		Applications: s.Applications,
		Jobs:         s.Jobs,
		Retainers:    s.Retainers,
		Feedback:     s.Feedback,
		Reminders:    s.Reminders,
	}
}
