package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToTypeAndWildcard(t *testing.T) {
	bus := NewEventBus(nil)

	var typed, all []string
	bus.Subscribe(OverrideCreated, func(e Event) error {
		typed = append(typed, e.Type)
		return nil
	})
	bus.Subscribe("*", func(e Event) error {
		all = append(all, e.Type)
		return nil
	})

	bus.Publish(Event{Type: OverrideCreated, TerminalID: 1})
	bus.Publish(Event{Type: ClosedDateAdded, TerminalID: 1})

	assert.Equal(t, []string{OverrideCreated}, typed)
	assert.Equal(t, []string{OverrideCreated, ClosedDateAdded}, all)
}

func TestPublishLogsHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	called := false
	bus.Subscribe(OverflowDetected, func(Event) error { return errors.New("boom") })
	bus.Subscribe(OverflowDetected, func(Event) error {
		called = true
		return nil
	})
	bus.Publish(Event{Type: OverflowDetected, TerminalID: 3})

	assert.True(t, called)
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), `"terminal_id":3`)
}

func TestNewEventAndLogHandler(t *testing.T) {
	e, err := NewEvent(ClosedDateAdded, 4, map[string]string{"date": "2026-01-12"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-01-12"}`, string(e.Payload))
	assert.False(t, e.CreatedAt.IsZero())

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	require.NoError(t, LogHandler(&logger)(e))
	assert.Contains(t, buf.String(), `"payload":{"date":"2026-01-12"}`)

	_, err = NewEvent(ClosedDateAdded, 4, make(chan int))
	assert.Error(t, err)
}
