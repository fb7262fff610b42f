// Package notify is a small in-process pub-sub used to fan out
// connection lifecycle changes to whatever wants to observe them
// (diagnostics, audit logging, a future outbound event channel)
// without the supervisor knowing who, if anyone, is listening.
package notify

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	// ErrHandlerAlreadyRegistered is returned when registering a handler
	// that is already registered for the event type.
	ErrHandlerAlreadyRegistered = errors.New("handler already registered")

	// ErrEventNil is returned when Dispatch is given a nil event.
	ErrEventNil = errors.New("event cannot be nil")

	// ErrHandlerNil is returned when Register is given a nil handler.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrEventTypeEmpty is returned when Register is given an empty event type.
	ErrEventTypeEmpty = errors.New("event type cannot be empty")
)

// Event is one occurrence dispatched to registered handlers.
type Event interface {
	// EventType names the channel handlers register against.
	EventType() string
}

// Handler reacts to a dispatched Event. Handle should return quickly;
// Dispatch runs handlers sequentially on the dispatching goroutine.
// Handlers are compared by identity: register a pointer, not a value,
// so Register/Has/Remove agree on which instance you mean.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// Dispatcher registers handlers against event types and fans out
// dispatched events to them. Safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithCapacity pre-sizes the event-type map when the caller knows
// roughly how many distinct event types will be registered.
func WithCapacity(capacity int) Option {
	return func(d *Dispatcher) {
		d.handlers = make(map[string][]Handler, capacity)
	}
}

// NewDispatcher builds a Dispatcher with no handlers registered.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string][]Handler)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs every handler registered for event's type, in
// registration order, stopping at the first error or at context
// cancellation. A nil Dispatcher is valid and silently does nothing —
// callers that construct a supervisor without notification wiring
// don't need a guard at every call site.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	if event == nil {
		return ErrEventNil
	}
	eventType := event.EventType()
	if eventType == "" {
		return ErrEventTypeEmpty
	}

	d.mu.RLock()
	handlers, ok := d.handlers[eventType]
	if !ok {
		d.mu.RUnlock()
		return nil
	}
	handlersCopy := make([]Handler, len(handlers))
	copy(handlersCopy, handlers)
	d.mu.RUnlock()

	for _, handler := range handlersCopy {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Register adds handler for eventType. Registering the same handler
// twice for the same type is rejected rather than silently
// deduplicated, since a caller doing that almost always has a bug.
func (d *Dispatcher) Register(eventType string, handler Handler) error {
	if eventType == "" {
		return ErrEventTypeEmpty
	}
	if handler == nil {
		return ErrHandlerNil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if slices.Contains(d.handlers[eventType], handler) {
		return ErrHandlerAlreadyRegistered
	}

	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

// Has reports whether handler is registered for eventType.
func (d *Dispatcher) Has(eventType string, handler Handler) bool {
	if eventType == "" || handler == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	handlers, ok := d.handlers[eventType]
	if !ok {
		return false
	}
	return slices.Contains(handlers, handler)
}

// Remove unregisters the first matching handler for eventType. A
// handler that isn't registered is a no-op, not an error.
func (d *Dispatcher) Remove(eventType string, handler Handler) {
	if eventType == "" || handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers, ok := d.handlers[eventType]
	if !ok {
		return
	}

	newHandlers := make([]Handler, 0, len(handlers))
	removed := false
	for _, h := range handlers {
		if !removed && h == handler {
			removed = true
			continue
		}
		newHandlers = append(newHandlers, h)
	}
	if !removed {
		return
	}
	if len(newHandlers) == 0 {
		delete(d.handlers, eventType)
		return
	}
	d.handlers[eventType] = newHandlers
}

// Clear removes every registered handler for every event type.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.handlers)
}
