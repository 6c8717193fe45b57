package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunRecorded    EventType = "run_recorded"
	EventTypeMentionFound   EventType = "mention_found"
	EventTypeBatchCompleted EventType = "batch_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RunRecordedEvent represents a persisted prompt run, successful or failed
type RunRecordedEvent struct {
	PromptRunID int64
	PromptID    int64
	DomainID    int64
	Provider    string
	Success     bool
}

func (e RunRecordedEvent) Type() EventType {
	return EventTypeRunRecorded
}

// MentionFoundEvent represents a detected domain mention in a run's response
type MentionFoundEvent struct {
	PromptRunID int64
	DomainID    int64
	DomainName  string
	Position    *int
}

func (e MentionFoundEvent) Type() EventType {
	return EventTypeMentionFound
}

// BatchCompletedEvent represents a finished prompt batch for one domain
type BatchCompletedEvent struct {
	JobID     string
	DomainID  int64
	Provider  string
	Total     int
	Succeeded int
	Failed    int
}

func (e BatchCompletedEvent) Type() EventType {
	return EventTypeBatchCompleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the batch loop
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and
// flushes them to the underlying bus only after the database commit, so
// subscribers never observe an event for a row that was rolled back.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
