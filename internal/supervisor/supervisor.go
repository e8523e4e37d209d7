package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
)

// DefaultTimeout is the budget a store refresh gets before fallback data loads.
const DefaultTimeout = 8 * time.Second

// Refresher reloads the ticket collection. forceFallback skips the store.
type Refresher interface {
	Refresh(ctx context.Context, forceFallback bool) error
}

// Dependencies bundles collaborators for the supervisor.
type Dependencies struct {
	Refresher   Refresher
	Timeout     time.Duration
	SettleDelay time.Duration
	Clock       func() time.Time
	Logger      *zap.Logger
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
}

// Supervisor runs Machine against real timers. The store fetch is never
// aborted; once the machine has moved on, its outcome only affects data.
type Supervisor struct {
	refresher  Refresher
	timeout    time.Duration
	settle     time.Duration
	now        func() time.Time
	logger     *zap.Logger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics

	mu      sync.Mutex
	machine *Machine
	timer   *time.Timer
	settler *time.Timer
	changed chan struct{}
}

// New constructs an idle supervisor.
func New(deps Dependencies) *Supervisor {
	s := &Supervisor{
		refresher:  deps.Refresher,
		timeout:    deps.Timeout,
		settle:     deps.SettleDelay,
		now:        deps.Clock,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		machine:    NewMachine(),
		changed:    make(chan struct{}),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.settle < 0 {
		s.settle = 0
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Start begins a refresh attempt without waiting for it. A call while an
// attempt is loading joins that attempt.
func (s *Supervisor) Start(ctx context.Context) Status {
	return s.handle(ctx, Start{At: s.now()})
}

// Refresh starts an attempt and waits until it is resting: completed, or
// timed out or canceled with the fallback data loaded.
func (s *Supervisor) Refresh(ctx context.Context) (Status, error) {
	s.Start(ctx)
	return s.Wait(ctx)
}

// Wait blocks until nothing is in flight or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) (Status, error) {
	for {
		s.mu.Lock()
		status := s.machine.Status(s.now())
		changed := s.changed
		s.mu.Unlock()

		if status.Resting() {
			return status, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
}

// Cancel stops waiting on the current attempt and loads fallback data.
func (s *Supervisor) Cancel(ctx context.Context) Status {
	return s.handle(ctx, Cancel{At: s.now()})
}

// Snapshot returns the current status.
func (s *Supervisor) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Status(s.now())
}

// Close disarms pending timers. In-flight fetches are left to finish.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopTimer(s.timer)
	stopTimer(s.settler)
}

func (s *Supervisor) handle(ctx context.Context, ev Event) Status {
	s.mu.Lock()
	actions := s.machine.Handle(ev)
	var notices []Notify
	for _, action := range actions {
		switch a := action.(type) {
		case StartTimer:
			stopTimer(s.timer)
			gen := a.Generation
			s.timer = time.AfterFunc(s.timeout, func() {
				s.handle(ctx, Timeout{Generation: gen, At: s.now()})
			})
		case StopTimer:
			stopTimer(s.timer)
		case Fetch:
			go s.fetch(ctx, a.Generation)
		case FetchFallback:
			go s.fetchFallback(ctx, a.Generation)
		case ScheduleSettle:
			stopTimer(s.settler)
			gen := a.Generation
			s.settler = time.AfterFunc(s.settle, func() {
				s.handle(ctx, Settled{Generation: gen})
			})
		case Notify:
			notices = append(notices, a)
		}
	}
	status := s.machine.Status(s.now())
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	for _, n := range notices {
		s.announce(ctx, n, status)
	}
	return status
}

func (s *Supervisor) fetch(ctx context.Context, gen uint64) {
	err := s.refresher.Refresh(context.WithoutCancel(ctx), false)
	s.handle(ctx, Completed{Generation: gen, Err: err, At: s.now()})
}

func (s *Supervisor) fetchFallback(ctx context.Context, gen uint64) {
	if err := s.refresher.Refresh(context.WithoutCancel(ctx), true); err != nil {
		s.logger.Error("fallback refresh failed", zap.Uint64("generation", gen), zap.Error(err))
	}
	s.handle(ctx, FallbackCompleted{Generation: gen})
}

func (s *Supervisor) announce(ctx context.Context, n Notify, status Status) {
	fields := []zap.Field{
		zap.String("from", string(n.From)),
		zap.String("to", string(n.To)),
		zap.Uint64("attempt", status.Attempts),
		zap.Duration("elapsed", status.Elapsed),
	}
	switch n.To {
	case StateLoading:
		s.logger.Debug("ticket refresh started", fields...)
	case StateSucceeded:
		s.logger.Info("ticket refresh succeeded", fields...)
	default:
		s.logger.Warn("ticket refresh degraded", append(fields, zap.String("message", status.Message))...)
	}
	if n.To != StateLoading {
		s.metrics.RecordRefresh(string(n.To))
	}

	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoadStateChanged,
		Timestamp: s.now(),
		Payload: events.LoadStateChangedPayload{
			From:      string(n.From),
			To:        string(n.To),
			Attempt:   status.Attempts,
			ElapsedMs: status.Elapsed.Milliseconds(),
			Message:   status.Message,
		},
	}
	if err := s.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("load state notification failed", zap.Error(err))
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
