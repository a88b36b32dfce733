// Package notify delivers best-effort notifications outside the request path.
//
// Callers hand a Notification to a Dispatcher, which queues it and returns
// immediately. Worker goroutines pass queued notifications to a Sender; send
// failures are logged and counted, never reported back to the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Kind identifies the state transition a notification reports.
type Kind string

const (
	KindWelcome               Kind = "welcome"
	KindEventCreated          Kind = "event_created"
	KindEventUpdated          Kind = "event_updated"
	KindEventCancelled        Kind = "event_cancelled"
	KindRegistrationConfirmed Kind = "registration_confirmed"
	KindRegistrationCancelled Kind = "registration_cancelled"
)

// Notification is one message for one recipient.
type Notification struct {
	Kind      Kind
	Recipient string
	Subject   string
	Body      string
	Data      map[string]string
}

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Notifier is what the services depend on.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Options sizes a Dispatcher.
type Options struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher is a Notifier backed by a bounded queue and a worker pool.
type Dispatcher struct {
	sender  Sender
	logger  zerolog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan Notification
	closed bool

	group *errgroup.Group
}

// NewDispatcher starts opts.Workers workers draining into sender.
func NewDispatcher(sender Sender, opts Options, logger zerolog.Logger) *Dispatcher {
	workers := max(opts.Workers, 1)
	timeout := opts.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger.With().Str("component", "notify").Logger(),
		timeout: timeout,
		queue:   make(chan Notification, max(opts.QueueSize, 0)),
		group:   new(errgroup.Group),
	}
	for range workers {
		d.group.Go(d.work)
	}
	return d
}

// Notify enqueues n without blocking. When the dispatcher is closed or the
// queue is full the notification is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}
	metrics.NotificationQueueDepth.Inc()
	select {
	case d.queue <- n:
	default:
		metrics.NotificationQueueDepth.Dec()
		d.drop(n, "queue full")
	}
}

// Close stops accepting notifications and waits for queued ones to be sent
// or for ctx to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() error {
	for n := range d.queue {
		metrics.NotificationQueueDepth.Dec()
		d.send(n)
	}
	return nil
}

func (d *Dispatcher) send(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.Notifications.WithLabelValues(string(n.Kind), metrics.OutcomeFailure).Inc()
			d.logger.Error().
				Interface("panic", r).
				Str("kind", string(n.Kind)).
				Msg("notification sender panicked")
		}
	}()

	err := d.sender.Send(ctx, n)
	metrics.Notifications.WithLabelValues(string(n.Kind), metrics.Result(err)).Inc()
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("kind", string(n.Kind)).
			Str("to", n.Recipient).
			Msg("failed to send notification")
	}
}

func (d *Dispatcher) drop(n Notification, reason string) {
	metrics.Notifications.WithLabelValues(string(n.Kind), metrics.OutcomeDropped).Inc()
	d.logger.Warn().
		Str("kind", string(n.Kind)).
		Str("to", n.Recipient).
		Str("reason", reason).
		Msg("notification dropped")
}

// Discard is a Notifier that drops everything.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, Notification) {}
