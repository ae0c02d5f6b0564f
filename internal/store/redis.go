package store

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis persists cart payloads as plain string values and announces writes
// over a per-key Pub/Sub channel so other instances sharing the backend can
// reconcile.
type Redis struct {
	Client *redis.Client
	// Prefix namespaces all keys, e.g. "cart:".
	Prefix string
	// TTL bounds how long an untouched cart survives. Zero keeps carts
	// forever.
	TTL time.Duration
}

func (s *Redis) dataKey(key string) string {
	return s.Prefix + key
}

func (s *Redis) channel(key string) string {
	return s.Prefix + key + ":changes"
}

// Load implements Store.
func (s *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.Client == nil {
		return nil, false, errors.New("store: redis client not configured")
	}
	data, err := s.Client.Get(ctx, s.dataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save implements Store. The write and its announcement run in one
// pipeline; subscribers receive the exact payload that was stored.
func (s *Redis) Save(ctx context.Context, key string, payload []byte) error {
	if s == nil || s.Client == nil {
		return errors.New("store: redis client not configured")
	}
	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, s.dataKey(key), payload, s.TTL)
	pipe.Publish(ctx, s.channel(key), payload)
	_, err := pipe.Exec(ctx)
	return err
}

// Watch implements Store. It blocks until the subscription is confirmed so
// callers never miss writes published after Watch returns.
func (s *Redis) Watch(ctx context.Context, key string) (<-chan []byte, func(), error) {
	if s == nil || s.Client == nil {
		return nil, nil, errors.New("store: redis client not configured")
	}
	sub := s.Client.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	updates := make(chan []byte, 16)
	go func() {
		defer close(updates)
		for msg := range sub.Channel() {
			updates <- []byte(msg.Payload)
		}
	}()

	stop := func() { _ = sub.Close() }
	return updates, stop, nil
}
