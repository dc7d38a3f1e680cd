/**
 * @description
 * This package implements the in-process dispatch bus used to decouple the
 * inbound request handlers from the workers that call the external banking
 * API. It offers request/reply with a per-call deadline and fire-and-forget
 * delivery, with at most one subscriber per topic.
 *
 * @dependencies
 * - context, encoding/json, sync, time: Standard Go libraries.
 * - internal/metrics: Request counters per topic and status.
 */

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/contodemo/account-service/internal/metrics"
)

// DefaultRequestTimeout bounds a request when the caller's context carries no
// deadline. It is sized to exceed the worst-case external API latency for
// money transfer operations.
const DefaultRequestTimeout = 100 * time.Second

var (
	// ErrNoSubscriber is returned immediately when a request targets a topic
	// nobody ever subscribed to.
	ErrNoSubscriber = errors.New("no subscriber registered for topic")

	// ErrTimeout is returned when the deadline elapses before the handler
	// replies. It is distinct from a handler-signaled *Failure.
	ErrTimeout = errors.New("request timed out")

	// ErrDuplicateSubscriber is returned by Subscribe when the topic already
	// has a handler; a topic has single-consumer semantics for the process
	// lifetime.
	ErrDuplicateSubscriber = errors.New("topic already has a subscriber")
)

// Failure is a structured, handler-signaled failure carrying one of the
// errcode classifications and a human-readable message.
type Failure struct {
	Code    int
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Handler consumes one delivery. It must either Reply or Fail exactly once;
// later calls are ignored. Handlers for a topic may be invoked concurrently
// and must not share mutable state across invocations.
type Handler func(ctx context.Context, d *Delivery)

type result struct {
	payload json.RawMessage
	failure *Failure
}

// Delivery is one envelope crossing the bus. The correlation id of the
// originating request rides along transparently so handlers can use it for
// log correlation; it never participates in routing.
type Delivery struct {
	Topic         string
	CorrelationID string
	Body          any

	once    sync.Once
	replyCh chan result
}

// Reply completes the delivery with a successful payload. For fire-and-forget
// deliveries the payload is discarded. If the waiting caller already gave up
// on its deadline the reply is discarded too.
func (d *Delivery) Reply(payload json.RawMessage) {
	d.once.Do(func() {
		if d.replyCh != nil {
			d.replyCh <- result{payload: payload}
		}
	})
}

// Fail completes the delivery with a structured failure.
func (d *Delivery) Fail(code int, message string) {
	d.once.Do(func() {
		if d.replyCh != nil {
			d.replyCh <- result{failure: &Failure{Code: code, Message: message}}
		}
	})
}

// Bus routes deliveries to the single handler registered per topic. Handlers
// for different topics run independently; a topic's handler runs on a fresh
// goroutine per delivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timeout  time.Duration
}

// New creates a Bus. A non-positive timeout falls back to
// DefaultRequestTimeout.
func New(timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Bus{
		handlers: make(map[string]Handler),
		timeout:  timeout,
	}
}

// Subscribe registers the handler for topic. Exactly one handler per topic is
// allowed for the process lifetime.
func (b *Bus) Subscribe(topic string, h Handler) error {
	if h == nil {
		return fmt.Errorf("subscribe %q: nil handler", topic)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[topic]; exists {
		return fmt.Errorf("subscribe %q: %w", topic, ErrDuplicateSubscriber)
	}
	b.handlers[topic] = h
	return nil
}

func (b *Bus) handler(topic string) (Handler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handlers[topic]
	return h, ok
}

// Request delivers body to the topic's handler and suspends the caller until
// the handler replies, the handler fails, or the deadline elapses. When ctx
// carries no deadline the bus default applies. The in-flight handler is not
// interrupted on timeout; its eventual reply is discarded.
func (b *Bus) Request(ctx context.Context, topic, correlationID string, body any) (json.RawMessage, error) {
	h, ok := b.handler(topic)
	if !ok {
		metrics.BusRequests.WithLabelValues(topic, "no_subscriber").Inc()
		return nil, fmt.Errorf("request %q: %w", topic, ErrNoSubscriber)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	d := &Delivery{
		Topic:         topic,
		CorrelationID: correlationID,
		Body:          body,
		replyCh:       make(chan result, 1),
	}

	go h(ctx, d)

	select {
	case res := <-d.replyCh:
		if res.failure != nil {
			metrics.BusRequests.WithLabelValues(topic, "failure").Inc()
			return nil, res.failure
		}
		metrics.BusRequests.WithLabelValues(topic, "ok").Inc()
		return res.payload, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.BusRequests.WithLabelValues(topic, "timeout").Inc()
			return nil, fmt.Errorf("request %q: %w", topic, ErrTimeout)
		}
		metrics.BusRequests.WithLabelValues(topic, "canceled").Inc()
		return nil, ctx.Err()
	}
}

// Send delivers body to the topic's handler and returns immediately. Handler
// failures are not observable to the sender. The handler runs against a fresh
// context bounded by the bus default timeout.
func (b *Bus) Send(topic, correlationID string, body any) {
	h, ok := b.handler(topic)
	if !ok {
		log.Printf("level=warn component=bus msg=\"send dropped, no subscriber\" topic=%s request_id=%s", topic, correlationID)
		return
	}

	d := &Delivery{
		Topic:         topic,
		CorrelationID: correlationID,
		Body:          body,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		h(ctx, d)
	}()
}
