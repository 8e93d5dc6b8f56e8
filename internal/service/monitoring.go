package service

import (
	"context"
	"errors"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/repository"
)

var (
	ErrNoIdentity = errors.New("no session identity yet")
	ErrNoReading  = errors.New("no reading stored yet")
)

type MonitoringService struct {
	docs   repository.DocumentStore
	poller StatusSource
}

func NewMonitoringService(docs repository.DocumentStore, poller StatusSource) *MonitoringService {
	return &MonitoringService{docs: docs, poller: poller}
}

// Latest returns the document the document sink last wrote for the polled identity.
func (s *MonitoringService) Latest(ctx context.Context) (jsonval.Value, error) {
	identity := s.poller.Status().Identity
	if identity == "" {
		return jsonval.Value{}, ErrNoIdentity
	}
	doc, ok, err := s.docs.Get(ctx, repository.UserDocumentPath(identity))
	if err != nil {
		return jsonval.Value{}, err
	}
	if !ok {
		return jsonval.Value{}, ErrNoReading
	}
	return doc, nil
}

func (s *MonitoringService) Status() LoopStatus {
	return s.poller.Status()
}
