package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gluco_watch/internal/models"

	"github.com/google/uuid"
)

// occurredAtLayout sorts lexicographically, so range filters work on the TEXT column.
const occurredAtLayout = "2006-01-02T15:04:05.000Z"

const insertTickEventSQL = `
		INSERT INTO tick_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`

const selectTickEventsSQL = `SELECT id, occurred_at, type, message, meta FROM tick_events`

// TickEventSQLite keeps the polling history in the tick_events table.
type TickEventSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewTickEventSQLite(db *sql.DB) *TickEventSQLite {
	return &TickEventSQLite{db: db, now: time.Now}
}

var _ TickEventRepo = (*TickEventSQLite)(nil)

// Append stores e. A missing id or time is filled in.
func (r *TickEventSQLite) Append(ctx context.Context, e models.TickEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode tick event metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertTickEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(occurredAtLayout),
		normalizeEventType(e.Type),
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert tick event: %w", err)
	}
	return nil
}

// List returns events in [from, to], optionally of one type, oldest first.
// Zero bounds and an empty type are not filtered on.
func (r *TickEventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.TickEvent, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, from.UTC().Format(occurredAtLayout))
	}
	if !to.IsZero() {
		where = append(where, "occurred_at <= ?")
		args = append(args, to.UTC().Format(occurredAtLayout))
	}
	if typ = normalizeEventType(typ); typ != "" {
		where = append(where, "type = ?")
		args = append(args, typ)
	}

	q := selectTickEventsSQL
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tick events: %w", err)
	}
	defer rows.Close()

	var out []models.TickEvent
	for rows.Next() {
		var (
			ev         models.TickEvent
			occurredAt string
			meta       sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurredAt, &ev.Type, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan tick event: %w", err)
		}
		if ev.OccurredAt, err = time.Parse(occurredAtLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("tick event %s: bad occurred_at %q: %w", ev.EventID, occurredAt, err)
		}
		if meta.Valid && meta.String != "" {
			var v any
			if json.Unmarshal([]byte(meta.String), &v) == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = meta.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tick events: %w", err)
	}
	return out, nil
}

func normalizeEventType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
