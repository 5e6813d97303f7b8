package eventx

import (
	"time"

	"github.com/google/uuid"
)

// Event is the base interface for all events
type Event interface {
	ID() string
	Type() string
	Timestamp() time.Time
	Source() string
	Payload() any
	Metadata() map[string]any
}

// TypedEvent provides type-safe access to event data
type TypedEvent[T any] interface {
	Event
	Data() T
}

// EventOptions configure event creation
type EventOptions struct {
	Source   string
	Metadata map[string]any
	Now      func() time.Time
}

// BaseEvent implements TypedEvent
type BaseEvent[T any] struct {
	id        string
	eventType string
	timestamp time.Time
	source    string
	data      T
	metadata  map[string]any
}

// NewEvent creates a new typed event with a random id
func NewEvent[T any](eventType string, data T, opts ...EventOptions) TypedEvent[T] {
	var o EventOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Source == "" {
		o.Source = "crmturbo"
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]any)
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	return &BaseEvent[T]{
		id:        uuid.NewString(),
		eventType: eventType,
		timestamp: now(),
		source:    o.Source,
		data:      data,
		metadata:  o.Metadata,
	}
}

func (e *BaseEvent[T]) ID() string               { return e.id }
func (e *BaseEvent[T]) Type() string             { return e.eventType }
func (e *BaseEvent[T]) Timestamp() time.Time     { return e.timestamp }
func (e *BaseEvent[T]) Source() string           { return e.source }
func (e *BaseEvent[T]) Payload() any             { return e.data }
func (e *BaseEvent[T]) Metadata() map[string]any { return e.metadata }
func (e *BaseEvent[T]) Data() T                  { return e.data }
