package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_PublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []EventType

	SubscribeAll(d, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	}, EventRequestCreated, EventRequestAssigned)

	d.Publish(context.Background(), Event{Type: EventRequestCreated})
	d.Publish(context.Background(), Event{Type: EventRequestUpdated})
	d.Publish(context.Background(), Event{Type: EventRequestAssigned})

	assert.Equal(t, []EventType{EventRequestCreated, EventRequestAssigned}, got)
}

func TestDispatcher_HandlerErrorIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	calls := 0
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls++
		return errors.New("sink unavailable")
	})
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls++
		return nil
	})

	d.Publish(context.Background(), Event{ID: "evt-1", Type: EventRequestUpdated})

	assert.Equal(t, 2, calls)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "event handler failed", logs.All()[0].Message)
}
