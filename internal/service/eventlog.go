package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gluco_watch/internal/models"
	"gluco_watch/internal/repository"
)

type EventLogService struct {
	repo repository.TickEventRepo
}

func NewEventLogService(repo repository.TickEventRepo) *EventLogService {
	return &EventLogService{repo: repo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeFilter(f LogFilter) (LogFilter, error) {
	f.From, f.To = normalizeToUTC(f.From), normalizeToUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	return f, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.TickEvent, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f.From, f.To, f.Type)
}
