// Package broadcast fans job events out to the job owner's live
// subscribers and to external sinks, collapsing bursts of progress updates.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// Sink receives every emitted event. Emit must not block.
type Sink interface {
	Emit(owner uuid.UUID, e Event)
}

// Broadcaster publishes job events.
type Broadcaster struct {
	interval time.Duration
	buffer   int
	now      func() time.Time
	sinks    []Sink
	logger   *slog.Logger

	mu   sync.Mutex
	last map[uuid.UUID]time.Time
	subs map[uuid.UUID]map[*Subscription]struct{}
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithClock replaces the clock used for throttling.
func WithClock(now func() time.Time) Option {
	return func(b *Broadcaster) { b.now = now }
}

// WithSink adds an external sink.
func WithSink(s Sink) Option {
	return func(b *Broadcaster) { b.sinks = append(b.sinks, s) }
}

// New creates a Broadcaster from cfg.
func New(cfg *Config, logger *slog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		interval: cfg.ThrottleIntervalDuration(),
		buffer:   cfg.SubscriberBuffer,
		now:      time.Now,
		logger:   logger.With("system", "broadcast"),
		last:     make(map[uuid.UUID]time.Time),
		subs:     make(map[uuid.UUID]map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start closes every subscription on shutdown so streaming handlers return.
func (b *Broadcaster) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting broadcaster", "throttle", b.interval, "sinks", len(b.sinks))

	lc.OnShutdown("broadcaster", func(context.Context) error {
		b.mu.Lock()
		var all []*Subscription
		for _, set := range b.subs {
			for s := range set {
				all = append(all, s)
			}
		}
		b.mu.Unlock()

		for _, s := range all {
			s.Close()
		}
		b.logger.Info("broadcaster stopped", "closed_subscriptions", len(all))
		return nil
	})

	return nil
}

// Publish delivers e to owner's subscribers and every sink. It returns false
// when e was suppressed by the progress throttle.
func (b *Broadcaster) Publish(owner uuid.UUID, e Event) bool {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.Lock()
	if !b.admit(e) {
		b.mu.Unlock()
		return false
	}
	for s := range b.subs[owner] {
		select {
		case s.ch <- e:
		default:
			b.logger.Debug("subscriber buffer full, event dropped", "owner_id", owner, "job_id", e.JobID, "type", e.Kind)
		}
	}
	b.mu.Unlock()

	for _, sink := range b.sinks {
		sink.Emit(owner, e)
	}
	return true
}

// admit applies the throttle. Callers hold b.mu.
func (b *Broadcaster) admit(e Event) bool {
	switch {
	case e.Terminal():
		delete(b.last, e.JobID)
		return true
	case !e.IsProgress():
		return true
	case e.Progress >= 100:
		return true
	}

	now := b.now()
	if t, ok := b.last[e.JobID]; ok && now.Sub(t) < b.interval {
		return false
	}
	b.last[e.JobID] = now
	return true
}

// Forget releases the throttle state of job.
func (b *Broadcaster) Forget(job uuid.UUID) {
	b.mu.Lock()
	delete(b.last, job)
	b.mu.Unlock()
}

// Tracked returns the number of jobs with throttle state.
func (b *Broadcaster) Tracked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.last)
}

// Subscription is a buffered stream of one owner's events.
type Subscription struct {
	C <-chan Event

	ch    chan Event
	owner uuid.UUID
	b     *Broadcaster
	once  sync.Once
}

// Subscribe registers a subscriber for owner's events. Events are dropped
// for this subscriber while its buffer is full.
func (b *Broadcaster) Subscribe(owner uuid.UUID) *Subscription {
	ch := make(chan Event, b.buffer)
	s := &Subscription{C: ch, ch: ch, owner: owner, b: b}

	b.mu.Lock()
	set, ok := b.subs[owner]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[owner] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	return s
}

// Subscribers returns the number of live subscriptions for owner.
func (b *Broadcaster) Subscribers(owner uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[owner])
}

// Close unregisters the subscription and closes C. It is idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		if set, ok := s.b.subs[s.owner]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.b.subs, s.owner)
			}
		}
		close(s.ch)
	})
}
