package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gluco_watch/internal/errs"
	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/logger"
	"gluco_watch/internal/models"
	"gluco_watch/internal/reading"
	"gluco_watch/internal/repository"
	"gluco_watch/internal/sanitize"
)

// Loop defaults.
const (
	DefaultLoopInterval         = 120 * time.Second
	DefaultErrorRetry           = 300 * time.Second
	DefaultMaxConsecutiveErrors = 5
	DefaultTZOffsetHours        = 1
	DefaultWindowHours          = 24
	DefaultSinkTimeout          = 30 * time.Second
)

// SessionClient is the vendor session the poller drives. *easyview.Client implements it.
type SessionClient interface {
	Login(ctx context.Context) error
	FetchStatus(ctx context.Context, tzOffsetHours, windowHours int) (jsonval.Value, error)
	Identity() string
	Authenticated() bool
}

// ClientFactory builds a fresh, unauthenticated SessionClient.
type ClientFactory func() (SessionClient, error)

type PollerConfig struct {
	TZOffsetHours        int
	WindowHours          int
	LoopInterval         time.Duration
	ErrorRetry           time.Duration
	MaxConsecutiveErrors int
	IncludeRaw           bool
	// SinkTimeout bounds each sink's Persist call.
	SinkTimeout time.Duration
}

func (c *PollerConfig) applyDefaults() {
	if c.WindowHours <= 0 {
		c.WindowHours = DefaultWindowHours
	}
	if c.LoopInterval <= 0 {
		c.LoopInterval = DefaultLoopInterval
	}
	if c.ErrorRetry <= 0 {
		c.ErrorRetry = DefaultErrorRetry
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = DefaultSinkTimeout
	}
}

// LoopStatus is a point-in-time copy of the poller state.
type LoopStatus struct {
	Identity          string          `json:"identity"`
	Authenticated     bool            `json:"authenticated"`
	Running           bool            `json:"running"`
	ConsecutiveErrors int             `json:"consecutive_errors"`
	Ticks             int             `json:"ticks"`
	FailedTicks       int             `json:"failed_ticks"`
	Renewals          int             `json:"renewals"`
	LastTickAt        *time.Time      `json:"last_tick_at,omitempty"`
	LastSuccessAt     *time.Time      `json:"last_success_at,omitempty"`
	LastError         string          `json:"last_error,omitempty"`
	LastErrorKind     string          `json:"last_error_kind,omitempty"`
	LastReading       *models.Reading `json:"last_reading,omitempty"`
}

// Poller runs the fetch, extract, sanitize and persist cycle for one identity.
// Ticks are strictly sequential; only Status may be called from other goroutines.
type Poller struct {
	cfg       PollerConfig
	newClient ClientFactory
	sinks     []repository.Sink
	observers []TickObserver
	log       *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	// client is only touched by the goroutine running Setup/Tick/Run.
	client SessionClient

	mu     sync.Mutex
	policy *AuthPolicy
	status LoopStatus
}

func NewPoller(cfg PollerConfig, newClient ClientFactory, sinks []repository.Sink, log *logger.Logger, observers ...TickObserver) *Poller {
	cfg.applyDefaults()
	return &Poller{
		cfg:       cfg,
		newClient: newClient,
		sinks:     sinks,
		observers: observers,
		log:       log,
		now:       time.Now,
		sleep:     sleepContext,
		policy:    NewAuthPolicy(cfg.MaxConsecutiveErrors),
	}
}

// Setup replaces the session with a fresh client and logs in.
// The new client is kept even if login fails; the next fetch then fails its
// precondition and counts toward the renewal threshold.
func (p *Poller) Setup(ctx context.Context) error {
	return p.setup(ctx, false)
}

func (p *Poller) setup(ctx context.Context, renewal bool) error {
	client, err := p.newClient()
	if err != nil {
		err = fmt.Errorf("build session client: %w", err)
		p.notifySetup(ctx, renewal, err)
		return err
	}
	p.client = client

	loginErr := client.Login(ctx)

	p.mu.Lock()
	// A failed login has no identity; keep the last known one for the status API.
	if id := client.Identity(); id != "" {
		p.status.Identity = id
	}
	p.status.Authenticated = client.Authenticated()
	if renewal {
		p.status.Renewals++
	}
	p.mu.Unlock()

	if loginErr != nil {
		p.log.Errorw("session setup failed", "renewal", renewal, "kind", errs.Classify(loginErr), "err", loginErr)
	} else {
		p.log.Infow("session established", "identity", client.Identity(), "renewal", renewal)
	}
	p.notifySetup(ctx, renewal, loginErr)
	return loginErr
}

// Tick runs one cycle and reports whether it succeeded. It never panics.
func (p *Poller) Tick(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.recordFailure(ctx, fmt.Errorf("tick panic: %v", r))
			ok = false
		}
	}()

	rec, raw, err := p.collect(ctx)
	if err == nil {
		err = p.persist(ctx, rec)
	}
	if err != nil {
		p.recordFailure(ctx, err)
		return false
	}
	p.recordSuccess(ctx, rec, raw)
	return true
}

func (p *Poller) collect(ctx context.Context) (models.Record, jsonval.Value, error) {
	if p.client == nil {
		return models.Record{}, jsonval.Value{}, &errs.PreconditionError{Op: "tick", Required: "setup"}
	}
	payload, err := p.client.FetchStatus(ctx, p.cfg.TZOffsetHours, p.cfg.WindowHours)
	if err != nil {
		return models.Record{}, jsonval.Value{}, err
	}
	r, err := reading.ExtractLatest(payload)
	if err != nil {
		return models.Record{}, payload, err
	}
	rec := models.Record{
		Identity:  p.client.Identity(),
		Reading:   r,
		FetchedAt: p.now(),
	}
	if p.cfg.IncludeRaw {
		clean := sanitize.Default(payload)
		rec.Raw = &clean
	}
	return rec, payload, nil
}

// persist attempts every sink, each bounded by SinkTimeout; any failure fails the tick.
func (p *Poller) persist(ctx context.Context, rec models.Record) error {
	var failed []error
	for _, s := range p.sinks {
		if err := p.persistOne(ctx, s, rec); err != nil {
			failed = append(failed, &errs.SinkError{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(failed...)
}

func (p *Poller) persistOne(ctx context.Context, s repository.Sink, rec models.Record) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.SinkTimeout)
	defer cancel()
	return s.Persist(ctx, rec)
}

func (p *Poller) recordSuccess(ctx context.Context, rec models.Record, raw jsonval.Value) {
	at := p.now()
	r := rec.Reading

	p.mu.Lock()
	p.status.Ticks++
	p.status.LastTickAt = &at
	p.status.LastSuccessAt = &at
	p.status.LastError, p.status.LastErrorKind = "", ""
	p.status.LastReading = &r
	p.mu.Unlock()

	p.log.Infow("tick ok",
		"identity", rec.Identity,
		"glucose", r.GlucoseValue,
		"iso_time", r.ISOTime,
	)
	p.notify(ctx, "success", func(o TickObserver) error { return o.OnSuccess(ctx, rec, raw) })
}

func (p *Poller) recordFailure(ctx context.Context, err error) {
	at := p.now()
	kind := errs.Classify(err)

	p.mu.Lock()
	p.status.Ticks++
	p.status.FailedTicks++
	p.status.LastTickAt = &at
	p.status.LastError = err.Error()
	p.status.LastErrorKind = kind
	p.mu.Unlock()

	if errs.Retryable(err) {
		p.log.Warnw("tick failed", "kind", kind, "err", err)
	} else {
		p.log.Errorw("tick failed with unexpected error", "kind", kind, "retryable", false, "err", err)
	}
	p.notify(ctx, "failure", func(o TickObserver) error { return o.OnFailure(ctx, err) })
}

// Run ticks until ctx is done. Success waits LoopInterval; failure feeds the
// AuthPolicy, renews the session at the threshold, then waits ErrorRetry.
func (p *Poller) Run(ctx context.Context) {
	p.setRunning(true)
	defer p.setRunning(false)

	for ctx.Err() == nil {
		ok := p.Tick(ctx)

		p.mu.Lock()
		action := p.policy.Observe(ok)
		p.status.ConsecutiveErrors = p.policy.Consecutive()
		p.mu.Unlock()

		wait := p.cfg.LoopInterval
		if !ok {
			wait = p.cfg.ErrorRetry
			if action == AuthRenew && ctx.Err() == nil {
				p.log.Warnw("consecutive error threshold reached, renewing session",
					"threshold", p.cfg.MaxConsecutiveErrors)
				_ = p.setup(ctx, true)
			}
		}
		if !p.sleep(ctx, wait) {
			break
		}
	}
	p.log.Infow("poller stopped")
}

// Status is safe to call from any goroutine.
func (p *Poller) Status() LoopStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) setRunning(v bool) {
	p.mu.Lock()
	p.status.Running = v
	p.mu.Unlock()
}

func (p *Poller) notify(ctx context.Context, event string, call func(TickObserver) error) {
	for _, o := range p.observers {
		if err := safeObserve(o, call); err != nil {
			p.log.Warnw("tick observer failed", "event", event, "observer", fmt.Sprintf("%T", o), "err", err)
		}
	}
}

func (p *Poller) notifySetup(ctx context.Context, renewal bool, setupErr error) {
	for _, o := range p.observers {
		so, ok := o.(SetupObserver)
		if !ok {
			continue
		}
		err := safeObserve(o, func(TickObserver) error { return so.OnSetup(ctx, renewal, setupErr) })
		if err != nil {
			p.log.Warnw("setup observer failed", "observer", fmt.Sprintf("%T", o), "err", err)
		}
	}
}

func safeObserve(o TickObserver, call func(TickObserver) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return call(o)
}

// sleepContext waits d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
