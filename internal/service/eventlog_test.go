package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gluco_watch/internal/models"
)

func TestEventLogService_List_NormalizesFilter(t *testing.T) {
	t.Parallel()

	repo := &tickEventRepoStub{listResp: []models.TickEvent{{EventID: "1"}}}
	svc := NewEventLogService(repo)

	from := time.Date(2025, time.August, 1, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	to := time.Date(2025, time.August, 2, 0, 0, 0, 0, time.UTC)

	got, err := svc.List(context.Background(), LogFilter{From: from, To: to, Type: " tick_failed "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("events: %d", len(got))
	}
	if repo.gotFrom.Location() != time.UTC || !repo.gotFrom.Equal(from) {
		t.Errorf("from not normalized: %v", repo.gotFrom)
	}
	if repo.gotType != "TICK_FAILED" {
		t.Errorf("type not normalized: %q", repo.gotType)
	}
}

func TestEventLogService_List_ZeroBoundsPassThrough(t *testing.T) {
	t.Parallel()

	repo := &tickEventRepoStub{}
	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !repo.gotFrom.IsZero() || !repo.gotTo.IsZero() || repo.gotType != "" {
		t.Fatalf("expected empty filter, got %v %v %q", repo.gotFrom, repo.gotTo, repo.gotType)
	}
}

func TestEventLogService_List_InvalidRange(t *testing.T) {
	t.Parallel()

	repo := &tickEventRepoStub{}
	now := time.Now()
	_, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: now, To: now.Add(-time.Minute)})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("err = %v, want errInvalidTimeRange", err)
	}
}

func TestEventLogService_List_RepoError(t *testing.T) {
	t.Parallel()

	repo := &tickEventRepoStub{err: errors.New("db down")}
	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{}); err == nil {
		t.Fatalf("expected error")
	}
}
