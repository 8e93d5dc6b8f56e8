package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/repository"
)

type statusStub struct{ st LoopStatus }

func (s statusStub) Status() LoopStatus { return s.st }

type failingDocs struct{}

func (failingDocs) Set(context.Context, string, jsonval.Value) error { return nil }
func (failingDocs) Get(context.Context, string) (jsonval.Value, bool, error) {
	return jsonval.Value{}, false, errors.New("db down")
}

func TestMonitoringService_Latest(t *testing.T) {
	t.Parallel()

	stored := &memDocs{}
	_ = stored.Set(context.Background(), "users/42", jsonval.ObjectValue(
		jsonval.M("identity", jsonval.StringValue("42")),
	))

	cases := []struct {
		name     string
		identity string
		wantErr  error
		anyErr   bool
		docs     repository.DocumentStore
	}{
		{name: "no identity yet", identity: "", docs: stored, wantErr: ErrNoIdentity},
		{name: "nothing stored", identity: "7", docs: stored, wantErr: ErrNoReading},
		{name: "store error", identity: "42", docs: failingDocs{}, anyErr: true},
		{name: "stored document", identity: "42", docs: stored},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			svc := NewMonitoringService(tc.docs, statusStub{LoopStatus{Identity: tc.identity}})
			doc, err := svc.Latest(ctx)

			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
			case tc.anyErr:
				if err == nil {
					t.Fatalf("expected error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if id, _ := doc.Get("identity"); id.Str() != "42" {
					t.Fatalf("unexpected document: %+v", doc)
				}
			}
		})
	}
}

func TestMonitoringService_Status(t *testing.T) {
	svc := NewMonitoringService(&memDocs{}, statusStub{LoopStatus{Identity: "42", ConsecutiveErrors: 3}})
	if st := svc.Status(); st.Identity != "42" || st.ConsecutiveErrors != 3 {
		t.Fatalf("status not passed through: %+v", st)
	}
}
