package service

import (
	"context"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
	"gluco_watch/internal/repository"
)

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Monitoring exposes the latest stored reading and the poller state.
type Monitoring interface {
	Latest(ctx context.Context) (jsonval.Value, error)
	Status() LoopStatus
}

// EventLog exposes the tick history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TickEvent, error)
}

// StatusSource is implemented by *Poller.
type StatusSource interface {
	Status() LoopStatus
}

// LogFilter selects tick events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", TICK_OK, TICK_FAILED, REAUTH, SETUP_FAILED
}

// Service aggregates the read-side services used by the status API.
type Service struct {
	Monitoring
	EventLog
	Authorization
}

func NewService(repos *repository.Repository, poller StatusSource, auth AuthConfig) *Service {
	return &Service{
		Monitoring:    NewMonitoringService(repos.Documents, poller),
		EventLog:      NewEventLogService(repos.TickEvents),
		Authorization: NewAuthService(auth),
	}
}
