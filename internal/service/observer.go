package service

import (
	"context"
	"fmt"
	"time"

	"gluco_watch/internal/errs"
	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
	"gluco_watch/internal/repository"

	"github.com/google/uuid"
)

// TickObserver is told about every finished tick. Returned errors and panics
// are logged by the poller and never change the tick outcome.
type TickObserver interface {
	OnSuccess(ctx context.Context, rec models.Record, raw jsonval.Value) error
	OnFailure(ctx context.Context, err error) error
}

// SetupObserver is optionally implemented by observers that care about logins.
type SetupObserver interface {
	OnSetup(ctx context.Context, renewal bool, err error) error
}

// TickLog appends the polling history to the tick event table.
type TickLog struct {
	repo repository.TickEventRepo
	now  func() time.Time
}

func NewTickLog(repo repository.TickEventRepo) *TickLog {
	return &TickLog{repo: repo, now: time.Now}
}

var (
	_ TickObserver  = (*TickLog)(nil)
	_ SetupObserver = (*TickLog)(nil)
)

func (l *TickLog) OnSuccess(ctx context.Context, rec models.Record, _ jsonval.Value) error {
	return l.repo.Append(ctx, models.TickEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  rec.FetchedAt,
		Type:        models.EventTickOK,
		Description: fmt.Sprintf("glucose %.1f at %s", rec.Reading.GlucoseValue, rec.Reading.ISOTime),
		Metadata: map[string]any{
			"identity":  rec.Identity,
			"glucose":   rec.Reading.GlucoseValue,
			"timestamp": rec.Reading.Timestamp,
			"iso_time":  rec.Reading.ISOTime,
		},
	})
}

func (l *TickLog) OnFailure(ctx context.Context, err error) error {
	meta := map[string]any{"kind": errs.Classify(err)}
	if sinks := errs.FailedSinks(err); len(sinks) > 0 {
		meta["sinks"] = sinks
	}
	return l.repo.Append(ctx, models.TickEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  l.now(),
		Type:        models.EventTickFailed,
		Description: err.Error(),
		Metadata:    meta,
	})
}

// OnSetup records renewals and failed logins. The first successful login is not logged.
func (l *TickLog) OnSetup(ctx context.Context, renewal bool, err error) error {
	ev := models.TickEvent{
		EventID:    uuid.NewString(),
		OccurredAt: l.now(),
		Metadata:   map[string]any{"renewal": renewal},
	}
	switch {
	case err != nil:
		ev.Type = models.EventSetupFailed
		ev.Description = err.Error()
		ev.Metadata = map[string]any{"renewal": renewal, "kind": errs.Classify(err)}
	case renewal:
		ev.Type = models.EventReauth
		ev.Description = "session renewed after consecutive failures"
	default:
		return nil
	}
	return l.repo.Append(ctx, ev)
}
