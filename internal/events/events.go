// Package events is the in-process bus for schedule change notifications.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types published by the capacity service.
const (
	OverrideCreated       = "override.created"
	OverrideUpdated       = "override.updated"
	OverrideDeleted       = "override.deleted"
	DefaultConfigReplaced = "default_config.replaced"
	ClosedDateAdded       = "closed_date.added"
	ClosedDateRemoved     = "closed_date.removed"
	OverflowDetected      = "overflow.detected"
)

// Event represents a lightweight domain event.
type Event struct {
	Type       string
	TerminalID int64
	Payload    []byte
	CreatedAt  time.Time
}

// NewEvent encodes payload as JSON.
func NewEvent(eventType string, terminalID int64, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, TerminalID: terminalID, Payload: data, CreatedAt: time.Now()}, nil
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(event Event)
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type. "*" receives every event.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if eventType == "*" {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Int64("terminal_id", event.TerminalID).Msg("event handler failed")
		}
	}
}

// LogHandler writes every event to logger as an audit trail.
func LogHandler(logger *zerolog.Logger) EventHandler {
	return func(event Event) error {
		logger.Info().
			Str("event", event.Type).
			Int64("terminal_id", event.TerminalID).
			RawJSON("payload", event.Payload).
			Time("at", event.CreatedAt).
			Msg("schedule event")
		return nil
	}
}
