// Package messaging dispatches School Hub domain events to in-process
// subscribers and forwards them to Redis.
package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/redis"
	"github.com/gestao-escolar/school-hub/pkg/circuitbreaker"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// ErrEventBusClosed is returned when publishing on or subscribing to a closed bus.
var ErrEventBusClosed = errors.New("messaging: event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers every event synchronously to its subscribers, in
// subscription order, on the publishing goroutine. A failing handler is logged
// and does not stop the others.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	log         *logger.Logger
	metrics     *Metrics
	closed      bool
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates an empty bus.
func NewInMemoryEventBus(log *logger.Logger) *InMemoryEventBus {
	if log == nil {
		log = logger.Default()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		log:      log.With(logger.Component("event_bus")),
		metrics:  newMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("messaging: handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("messaging: handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish runs every matching handler. It returns the first handler error
// after all handlers have run.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("messaging: event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.recordPublish()

	var first error
	for _, handler := range handlers {
		start := time.Now()
		err := handler(event)
		b.metrics.recordHandler(err == nil)

		if err != nil {
			b.log.Error("event handler failed",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Latency(time.Since(start)),
				logger.Err(err),
			)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close stops the bus. Later publishes fail with ErrEventBusClosed.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		b.log.Info("event bus closed")
	}
	return nil
}

// Metrics returns a snapshot of the bus counters.
func (b *InMemoryEventBus) Metrics() MetricsSnapshot {
	return b.metrics.snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS FORWARDER
// ══════════════════════════════════════════════════════════════════════════════

// ChannelPublisher publishes a JSON message on a named channel.
// *redis.Publisher implements it.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// Envelope is the JSON message written to Redis for each event.
type Envelope struct {
	Type        shared.EventType `json:"type"`
	AggregateID string           `json:"aggregate_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Payload     map[string]any   `json:"payload"`
}

// NewEnvelope wraps an event for the wire.
func NewEnvelope(event shared.Event) Envelope {
	return Envelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}
}

// RedisForwarder forwards events to the channel pubsub:<event type>. After
// repeated publish failures it stops contacting Redis for a cool-down and
// fails fast with circuitbreaker.ErrCircuitOpen.
type RedisForwarder struct {
	publisher ChannelPublisher
	timeout   time.Duration
	breaker   *circuitbreaker.CircuitBreaker
	log       *logger.Logger
}

// NewRedisForwarder creates a forwarder. A zero timeout defaults to 2s.
func NewRedisForwarder(publisher ChannelPublisher, timeout time.Duration, log *logger.Logger) *RedisForwarder {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	f := &RedisForwarder{
		publisher: publisher,
		timeout:   timeout,
		log:       log.With(logger.Component("redis_forwarder")),
	}
	f.breaker = circuitbreaker.EventForwarderBreaker(func(name string, from, to circuitbreaker.State) {
		f.log.Warn("event forwarding circuit changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return f
}

// Handle publishes event. It has the shared.EventHandler signature so it can
// be passed to SubscribeAll.
func (f *RedisForwarder) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	channel := redis.PubSubChannel(event.EventType())
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		return f.publisher.Publish(ctx, channel, NewEnvelope(event))
	})
	if err != nil {
		return err
	}

	f.log.Debug("event forwarded", logger.String("channel", channel))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics counts bus activity.
type Metrics struct {
	mu        sync.Mutex
	published int64
	succeeded int64
	failed    int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Published int64 `json:"published"`
	Succeeded int64 `json:"handlers_succeeded"`
	Failed    int64 `json:"handlers_failed"`
}

func newMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) recordPublish() {
	m.mu.Lock()
	m.published++
	m.mu.Unlock()
}

func (m *Metrics) recordHandler(ok bool) {
	m.mu.Lock()
	if ok {
		m.succeeded++
	} else {
		m.failed++
	}
	m.mu.Unlock()
}

func (m *Metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{Published: m.published, Succeeded: m.succeeded, Failed: m.failed}
}
