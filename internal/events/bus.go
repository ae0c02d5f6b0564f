package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Event is a snapshot notification delivered to local subscribers.
type Event struct {
	Topic      string
	Key        string
	Payload    json.RawMessage
	OccurredAt time.Time
}

// Notifier reacts to emitted events (presentation layers, metrics, etc.).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans emitted events out to registered notifiers in subscription
// order. Notifier errors are joined and reported to the emitter; they never
// stop delivery to the remaining notifiers.
type Bus struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// Subscribe registers a notifier for all subsequently emitted events.
func (b *Bus) Subscribe(n Notifier) {
	if b == nil || n == nil {
		return
	}
	b.mu.Lock()
	b.notifiers = append(b.notifiers, n)
	b.mu.Unlock()
}

// Emit dispatches the event to all registered notifiers.
func (b *Bus) Emit(ctx context.Context, topic, key string, payload any) error {
	if b == nil {
		return nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		Topic:      topic,
		Key:        key,
		Payload:    encoded,
		OccurredAt: time.Now(),
	}

	b.mu.RLock()
	notifiers := make([]Notifier, len(b.notifiers))
	copy(notifiers, b.notifiers)
	b.mu.RUnlock()

	var joined error
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return joined
}

func encodePayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	case json.RawMessage:
		return encodePayload([]byte(v))
	default:
		return json.Marshal(v)
	}
}
