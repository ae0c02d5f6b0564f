package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding window limiter backed by one Redis sorted set per
// bucket. Every call records the request as a member scored by its arrival
// time and prunes members older than the window, so the count reflects a
// true rolling rate rather than a fixed interval.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Verdict is the outcome of a single Allow call.
type Verdict struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allow records a request in the bucket and reports whether it fits the
// limit. A missing client or non-positive limit admits everything.
func (l Limiter) Allow(ctx context.Context, bucket string, window time.Duration, max int) (Verdict, error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return Verdict{Allowed: true, Remaining: max, ResetAt: time.Now().Add(window)}, nil
	}

	now := time.Now()
	key := l.Prefix + bucket
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	used := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Verdict{}, err
	}

	count := int(used.Val())
	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return Verdict{Allowed: count <= max, Remaining: remaining, ResetAt: now.Add(window)}, nil
}
