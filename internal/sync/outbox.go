package sync

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/courtside/tracker/internal/events"
	"github.com/courtside/tracker/internal/game"
)

// Mirror is the slice of the remote store the outbox needs.
type Mirror interface {
	AppendEvent(ctx context.Context, key string, e *game.GameEvent) error
}

// OutboxConfig holds outbox behavior settings.
type OutboxConfig struct {
	// RetryPerSec caps delivery attempts per second.
	RetryPerSec int

	// AttemptTimeout bounds one delivery attempt.
	AttemptTimeout time.Duration

	// FailureBackoff is how long the worker sleeps after a failed attempt
	// before trying the head of the queue again.
	FailureBackoff time.Duration
}

// DefaultOutboxConfig returns an OutboxConfig with sensible defaults.
func DefaultOutboxConfig() *OutboxConfig {
	return &OutboxConfig{
		RetryPerSec:    2,
		AttemptTimeout: 10 * time.Second,
		FailureBackoff: 5 * time.Second,
	}
}

type outboxEntry struct {
	sessionKey string
	event      *game.GameEvent
}

// Outbox queues events whose remote mirror failed (or hasn't been attempted)
// and delivers them in strict enqueue order. Order is never shuffled:
// delivery stops at the first failure and resumes from the same entry, so
// same-device events always reach the store in recording order. The remote
// store deduplicates by event id, which makes redelivery safe.
type Outbox struct {
	mirror     Mirror
	config     *OutboxConfig
	limiter    *rate.Limiter
	dispatcher *events.Dispatcher // may be nil
	metrics    *Metrics           // may be nil

	mu    sync.Mutex
	queue []outboxEntry

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewOutbox creates an outbox delivering through the given mirror.
// Dispatcher and metrics may be nil.
func NewOutbox(mirror Mirror, config *OutboxConfig, dispatcher *events.Dispatcher, metrics *Metrics) *Outbox {
	if config == nil {
		config = DefaultOutboxConfig()
	}
	return &Outbox{
		mirror:     mirror,
		config:     config,
		limiter:    rate.NewLimiter(rate.Limit(config.RetryPerSec), 1),
		dispatcher: dispatcher,
		metrics:    metrics,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (o *Outbox) Start() {
	go o.run()
}

// Stop shuts the worker down, leaving undelivered entries queued in memory.
func (o *Outbox) Stop() {
	close(o.stop)
	<-o.done
}

// Enqueue adds an event for delivery to the session's remote log.
func (o *Outbox) Enqueue(sessionKey string, e *game.GameEvent) {
	o.mu.Lock()
	o.queue = append(o.queue, outboxEntry{sessionKey: sessionKey, event: e})
	depth := len(o.queue)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.QueueDepth.Set(float64(depth))
	}
	o.emit(events.Event{Type: events.TypeSyncPending, Payload: events.SyncPendingPayload{Queued: depth}})

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of undelivered events.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *Outbox) run() {
	defer close(o.done)
	delivered := 0
	for {
		entry, ok := o.peek()
		if !ok {
			if delivered > 0 {
				o.emit(events.Event{Type: events.TypeSyncFlushed, Payload: events.SyncFlushedPayload{Delivered: delivered}})
				delivered = 0
			}
			select {
			case <-o.stop:
				return
			case <-o.wake:
			}
			continue
		}

		if err := o.waitLimiter(); err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), o.config.AttemptTimeout)
		err := o.mirror.AppendEvent(ctx, entry.sessionKey, entry.event)
		cancel()

		if err != nil {
			if o.metrics != nil {
				o.metrics.MirrorFailures.Inc()
			}
			log.Printf("[sync] mirror failed, %d queued: %v", o.Pending(), err)
			o.emit(events.Event{Type: events.TypeSyncPending, Payload: events.SyncPendingPayload{Queued: o.Pending()}})
			select {
			case <-o.stop:
				return
			case <-time.After(o.config.FailureBackoff):
			}
			continue
		}

		o.dequeue()
		delivered++
		if o.metrics != nil {
			o.metrics.Delivered.Inc()
			o.metrics.QueueDepth.Set(float64(o.Pending()))
		}
	}
}

// waitLimiter blocks on the rate limiter, aborting on stop.
func (o *Outbox) waitLimiter() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-o.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return o.limiter.Wait(ctx)
}

func (o *Outbox) peek() (outboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return outboxEntry{}, false
	}
	return o.queue[0], true
}

func (o *Outbox) dequeue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) > 0 {
		o.queue = o.queue[1:]
	}
}

func (o *Outbox) emit(event events.Event) {
	if o.dispatcher != nil {
		o.dispatcher.Dispatch(event)
	}
}
