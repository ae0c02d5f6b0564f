package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartd/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitNotifiesSubscribers(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	bus := &events.Bus{}
	bus.Subscribe(first)
	bus.Subscribe(second)

	err := bus.Emit(context.Background(), events.TopicCartUpdated, "cart-1", map[string]any{"qty": 2})
	require.NoError(t, err)

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, events.TopicCartUpdated, first.events[0].Topic)
	require.Equal(t, "cart-1", first.events[0].Key)
	require.JSONEq(t, `{"qty":2}`, string(first.events[0].Payload))
	require.False(t, first.events[0].OccurredAt.IsZero())
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := &events.Bus{}
	err := bus.Emit(context.Background(), "  ", "cart-1", nil)
	require.Error(t, err)
}

func TestEmitRawPayloadPassesThrough(t *testing.T) {
	notifier := &captureNotifier{}
	bus := &events.Bus{}
	bus.Subscribe(notifier)

	err := bus.Emit(context.Background(), events.TopicCartReplaced, "cart-2", []byte(`[{"id":"p1"}]`))
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"p1"}]`, string(notifier.events[0].Payload))

	err = bus.Emit(context.Background(), events.TopicCartReplaced, "cart-2", []byte("not json"))
	require.Error(t, err)
	require.Len(t, notifier.events, 1)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("boom")}
	ok := &captureNotifier{}
	bus := &events.Bus{}
	bus.Subscribe(failing)
	bus.Subscribe(ok)

	err := bus.Emit(context.Background(), events.TopicCartUpdated, "cart-3", nil)
	require.Error(t, err)
	// delivery continues past the failing notifier
	require.Len(t, ok.events, 1)
}
