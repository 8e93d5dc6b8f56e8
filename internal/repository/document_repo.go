package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
)

// DocumentSQLite stores JSON documents keyed by path.
type DocumentSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db, now: time.Now}
}

var _ DocumentStore = (*DocumentSQLite)(nil)

const (
	upsertDocumentSQL = `
		INSERT INTO documents (path, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectDocumentSQL = `SELECT body FROM documents WHERE path=?`
)

// Set overwrites the document at path. Merging is never attempted.
func (r *DocumentSQLite) Set(ctx context.Context, path string, doc jsonval.Value) error {
	body, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode document %q: %w", path, err)
	}
	if _, err := r.db.ExecContext(ctx, upsertDocumentSQL, path, string(body), r.now().UTC()); err != nil {
		return fmt.Errorf("upsert document %q: %w", path, err)
	}
	return nil
}

// Get loads the document at path.
func (r *DocumentSQLite) Get(ctx context.Context, path string) (jsonval.Value, bool, error) {
	var body string
	if err := r.db.QueryRowContext(ctx, selectDocumentSQL, path).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jsonval.Value{}, false, nil
		}
		return jsonval.Value{}, false, fmt.Errorf("select document %q: %w", path, err)
	}
	doc, err := jsonval.Parse([]byte(body))
	if err != nil {
		return jsonval.Value{}, false, fmt.Errorf("decode document %q: %w", path, err)
	}
	return doc, true, nil
}

// DocumentSink writes each record to users/{identity} in a DocumentStore.
type DocumentSink struct {
	store DocumentStore
}

func NewDocumentSink(store DocumentStore) *DocumentSink {
	return &DocumentSink{store: store}
}

var _ Sink = (*DocumentSink)(nil)

func (s *DocumentSink) Name() string { return "document" }

func (s *DocumentSink) Persist(ctx context.Context, rec models.Record) error {
	return s.store.Set(ctx, UserDocumentPath(rec.Identity), rec.Document())
}
