package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/growthdesk/storefront/internal/api/metrics"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// IdempotencyStore remembers which order an Idempotency-Key produced.
// Key format: idem:order:<scope>. While the first request is placing its
// order the key holds "pending".
type IdempotencyStore struct {
	client     redis.Cmdable
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL, pendingTTL: pendingTTL}
}

// Reserve claims key with SETNX. A second attempt is made when the key
// expires between the SETNX and the GET that follows it.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, string, error) {
	k := s.key(key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
		if err != nil {
			metrics.IdempotencyLookupsTotal.WithLabelValues("error").Inc()
			return false, "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			metrics.IdempotencyLookupsTotal.WithLabelValues("reserved").Inc()
			return true, "", nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			metrics.IdempotencyLookupsTotal.WithLabelValues("error").Inc()
			return false, "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if val == pendingMarker {
			metrics.IdempotencyLookupsTotal.WithLabelValues("in_flight").Inc()
			return false, "", nil
		}
		metrics.IdempotencyLookupsTotal.WithLabelValues("replay").Inc()
		return false, val, nil
	}
	metrics.IdempotencyLookupsTotal.WithLabelValues("in_flight").Inc()
	return false, "", nil
}

// Complete replaces the pending marker with orderID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key, orderID string) error {
	if err := s.client.Set(ctx, s.key(key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a reservation so the client can retry after a failure.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return "idem:order:" + key
}
