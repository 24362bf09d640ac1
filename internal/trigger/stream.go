package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/erazemk/zaloga/internal/metrics"
)

// Handler processes one batch. Returning an error redelivers the whole batch
// until the subscription runs out of retries.
type Handler func(ctx context.Context, batch []Event) error

// Subscription binds a handler to the changes of one table.
type Subscription struct {
	Name      string
	Table     string
	Kinds     []Kind
	BatchSize int
	// Retries is the number of redeliveries after a failed invocation, so a
	// batch runs at most Retries+1 times. Zero means DefaultRetries and a
	// negative value disables redelivery.
	Retries int
	// Budget bounds each handler invocation. A handler that ignores its
	// context is abandoned at the deadline; the batch is redelivered only
	// once that handler has returned, so two invocations never overlap.
	Budget time.Duration
	// Backoff is the pause before a redelivery.
	Backoff time.Duration
	Handler Handler
}

// Defaults for fields left zero in a Subscription.
const (
	DefaultBatchSize = 10
	DefaultRetries   = 2
	DefaultBudget    = 60 * time.Second
	DefaultBackoff   = time.Second
	queueCapacity    = 1024
)

func (s Subscription) matches(ev Event) bool {
	if ev.Table != s.Table {
		return false
	}
	return len(s.Kinds) == 0 || slices.Contains(s.Kinds, ev.Kind)
}

type subscriber struct {
	sub   Subscription
	queue chan Event
}

// Stream fans published events out to subscriptions.
type Stream struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	subs   []*subscriber
	closed bool
	wg     sync.WaitGroup
}

// New creates a stream. A nil metrics records nothing.
func New(logger *slog.Logger, m *metrics.Metrics) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{logger: logger, metrics: m}
}

// Subscribe registers sub and starts its delivery worker.
func (s *Stream) Subscribe(sub Subscription) error {
	if sub.Table == "" || sub.Handler == nil {
		return errors.New("subscription needs a table and a handler")
	}
	if sub.Name == "" {
		sub.Name = sub.Table
	}
	if sub.BatchSize <= 0 {
		sub.BatchSize = DefaultBatchSize
	}
	switch {
	case sub.Retries == 0:
		sub.Retries = DefaultRetries
	case sub.Retries < 0:
		sub.Retries = 0
	}
	if sub.Budget <= 0 {
		sub.Budget = DefaultBudget
	}
	if sub.Backoff <= 0 {
		sub.Backoff = DefaultBackoff
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream is closed")
	}

	sb := &subscriber{sub: sub, queue: make(chan Event, queueCapacity)}
	s.subs = append(s.subs, sb)
	s.wg.Add(1)
	go s.run(sb)
	return nil
}

// Publish enqueues ev for every matching subscription. It blocks only while
// a subscription queue is full. Events published after Close are dropped.
func (s *Stream) Publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("change event dropped after close", "table", ev.Table, "kind", ev.Kind, "key", ev.Key)
		return
	}
	for _, sb := range s.subs {
		if sb.sub.matches(ev) {
			sb.queue <- ev
			s.metrics.QueueDepth(sb.sub.Name, len(sb.queue))
		}
	}
}

// Close stops accepting events, delivers everything already queued and
// waits for the workers to exit.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, sb := range s.subs {
		close(sb.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Stream) run(sb *subscriber) {
	defer s.wg.Done()

	for first := range sb.queue {
		batch := []Event{first}
	fill:
		for len(batch) < sb.sub.BatchSize {
			select {
			case ev, ok := <-sb.queue:
				if !ok {
					break fill
				}
				batch = append(batch, ev)
			default:
				break fill
			}
		}
		s.metrics.QueueDepth(sb.sub.Name, len(sb.queue))
		s.deliver(sb.sub, batch)
	}
}

// deliver invokes the handler with retries. A batch that still fails after
// the last retry is logged and dropped.
func (s *Stream) deliver(sub Subscription, batch []Event) {
	backoff := retry.WithMaxRetries(uint64(sub.Retries), retry.NewConstant(sub.Backoff))

	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.Retry(sub.Name)
			s.logger.Warn("redelivering batch", "subscription", sub.Name, "attempt", attempt, "events", len(batch))
		}

		ctx, cancel := context.WithTimeout(ctx, sub.Budget)
		defer cancel()

		done := make(chan error, 1)
		go invoke(ctx, sub.Handler, batch, done)

		select {
		case err := <-done:
			if err != nil {
				return retry.RetryableError(err)
			}
			return nil
		case <-ctx.Done():
		}

		// The handler overran its budget. Give it one more budget to notice
		// the cancelled context before the batch may be redelivered.
		overrun := fmt.Errorf("handler exceeded budget: %w", ctx.Err())
		select {
		case <-done:
			return retry.RetryableError(overrun)
		case <-time.After(sub.Budget):
			s.logger.Error("handler still running after its budget, not redelivering",
				"subscription", sub.Name, "events", len(batch))
			return overrun
		}
	})

	s.metrics.Delivery(sub.Name, err == nil)
	if err != nil {
		s.logger.Error("batch delivery failed", "subscription", sub.Name, "attempts", attempt,
			"events", len(batch), "error", err)
	}
}

// invoke runs the handler and reports its result, turning a panic into an
// error.
func invoke(ctx context.Context, h Handler, batch []Event, done chan<- error) {
	defer func() {
		if r := recover(); r != nil {
			done <- fmt.Errorf("handler panic: %v", r)
		}
	}()
	done <- h(ctx, batch)
}
