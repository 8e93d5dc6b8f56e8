package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"gluco_watch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newTickEventMock(t *testing.T) (*TickEventSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewTickEventSQLite(db), mock
}

var tickEventColumns = []string{"id", "occurred_at", "type", "message", "meta"}

func TestTickEventAppend_FillsDefaults(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)
	repo.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }

	mock.ExpectExec(regexp.QuoteMeta(insertTickEventSQL)).
		WithArgs(sqlmock.AnyArg(), "2025-03-01T11:00:00.000Z", "TICK_OK", "glucose 5.5", `{"glucose":5.5}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(testCtx(t), models.TickEvent{
		Type:        " tick_ok ",
		Description: "glucose 5.5",
		Metadata:    map[string]any{"glucose": 5.5},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTickEventAppend_NilMetadataStoresNull(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)

	mock.ExpectExec(regexp.QuoteMeta(insertTickEventSQL)).
		WithArgs("fixed-id", sqlmock.AnyArg(), "REAUTH", "re-login", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(testCtx(t), models.TickEvent{
		EventID:     "fixed-id",
		OccurredAt:  time.Now(),
		Type:        models.EventReauth,
		Description: "re-login",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTickEventAppend_DBError(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)

	mock.ExpectExec("INSERT INTO tick_events").WillReturnError(errors.New("down"))

	err := repo.Append(testCtx(t), models.TickEvent{Type: models.EventTickFailed, Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestTickEventList_NoFilters(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)

	rows := sqlmock.NewRows(tickEventColumns).
		AddRow("1", "2025-01-01T10:00:00.000Z", "TICK_OK", "m1", `{"glucose":6.1}`).
		AddRow("2", "2025-01-01T11:00:00.000Z", "TICK_FAILED", "m2", nil).
		AddRow("3", "2025-01-01T12:00:00.000Z", "TICK_FAILED", "m3", "not-json")

	mock.ExpectQuery(regexp.QuoteMeta(selectTickEventsSQL + " ORDER BY occurred_at ASC")).
		WillReturnRows(rows)

	got, err := repo.List(testCtx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	if !got[0].OccurredAt.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("occurred_at: %v", got[0].OccurredAt)
	}
	meta, ok := got[0].Metadata.(map[string]any)
	if !ok || meta["glucose"] != 6.1 {
		t.Fatalf("metadata not decoded: %#v", got[0].Metadata)
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if got[2].Metadata != "not-json" {
		t.Fatalf("malformed meta should be kept raw, got %#v", got[2].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTickEventList_WithFilters(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))

	query := selectTickEventsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01T11:00:00.000Z", "2025-01-01T12:00:00.000Z", "TICK_FAILED").
		WillReturnRows(sqlmock.NewRows(tickEventColumns).
			AddRow("2", "2025-01-01T11:30:00.000Z", "TICK_FAILED", "b", nil))

	got, err := repo.List(testCtx(t), from, to, " tick_failed ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestTickEventList_BadTimestamp(t *testing.T) {
	t.Parallel()
	repo, mock := newTickEventMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectTickEventsSQL)).
		WillReturnRows(sqlmock.NewRows(tickEventColumns).AddRow("x", "yesterday", "TICK_OK", "msg", nil))

	if _, err := repo.List(testCtx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected parse error, got nil")
	}
}
