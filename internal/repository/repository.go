package repository

import (
	"context"
	"database/sql"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
)

// DocumentStore is a path-addressed store of whole JSON documents.
type DocumentStore interface {
	// Set replaces the document at path.
	Set(ctx context.Context, path string, doc jsonval.Value) error
	// Get returns the document at path; ok is false when none exists.
	Get(ctx context.Context, path string) (doc jsonval.Value, ok bool, err error)
}

// TickEventRepo is the append-only polling history.
type TickEventRepo interface {
	Append(ctx context.Context, e models.TickEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.TickEvent, error)
}

// Sink persists a finished record.
type Sink interface {
	Name() string
	Persist(ctx context.Context, rec models.Record) error
}

// Repository holds the SQLite-backed stores. External sinks are built
// separately from configuration.
type Repository struct {
	Documents  DocumentStore
	TickEvents TickEventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Documents:  NewDocumentSQLite(db),
		TickEvents: NewTickEventSQLite(db),
	}
}

// UserDocumentPath is where the document sink stores the latest record.
func UserDocumentPath(identity string) string {
	return "users/" + identity
}

// UserLatestPath is the key-path used by the key-path and publish sinks.
func UserLatestPath(identity string) string {
	return "users/" + identity + "/latest"
}
