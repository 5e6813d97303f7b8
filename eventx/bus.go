package eventx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/Abraxas-365/crmturbo/errx"
)

var (
	ErrorRegistry = errx.NewRegistry("EVENT")

	ErrInvalidEventType    = ErrorRegistry.Register("INVALID_TYPE", errx.TypeInternal, http.StatusInternalServerError, "Event payload has an unexpected type")
	ErrHandlerFailed       = ErrorRegistry.Register("HANDLER_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Event handler failed")
	ErrSerializationFailed = ErrorRegistry.Register("SERIALIZATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to serialize event")
)

// EventHandler is a function that processes events
type EventHandler func(ctx context.Context, e Event) error

// TypedEventHandler provides type-safe event handling
type TypedEventHandler[T any] func(ctx context.Context, e TypedEvent[T]) error

// Publisher is what producers depend on
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventBus dispatches events to subscribers
type EventBus interface {
	Publisher
	Subscribe(eventType string, handler EventHandler)
	HandlerCount(eventType string) int
}

// Wildcard subscribes a handler to every event type
const Wildcard = "*"

// MemoryBus dispatches synchronously in the publishing goroutine.
// All handlers run; their errors are joined.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]EventHandler)}
}

func (b *MemoryBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MemoryBus) HandlerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	targets := append(append([]EventHandler(nil), b.handlers[event.Type()]...), b.handlers[Wildcard]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if err := h(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return ErrorRegistry.NewWithCause(ErrHandlerFailed, errors.Join(errs...)).
		WithDetail("event_type", event.Type()).
		WithDetail("event_id", event.ID())
}

// SubscribeTyped registers a handler that only accepts payloads of type T
func SubscribeTyped[T any](bus EventBus, eventType string, handler TypedEventHandler[T]) {
	bus.Subscribe(eventType, func(ctx context.Context, e Event) error {
		if typed, ok := e.(TypedEvent[T]); ok {
			return handler(ctx, typed)
		}
		return ErrorRegistry.New(ErrInvalidEventType).
			WithDetail("expected_type", reflect.TypeOf((*T)(nil)).Elem().String()).
			WithDetail("actual_type", fmt.Sprintf("%T", e.Payload()))
	})
}

// Discard is a Publisher that drops every event
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
