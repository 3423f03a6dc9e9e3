// Package redisstore is the go-redis-backed nonce store, durable across
// verifier restarts and shared across horizontally-scaled verifier
// instances. Its atomic primitive is SETNX, issued on the wrapped client.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps a *redis.Client behind the noncestore.Store contract. Keys are
// namespaced under "nonce:" so the client can be shared with unrelated
// caches without collision.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an already-connected redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client, prefix: "nonce:"}
}

// Insert uses SETNX, redis's atomic compare-and-insert, as the replay guard.
func (s *Store) Insert(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+nonce, "1", ttl).Result()
}

// Sweep is a no-op: redis expires keys itself once their TTL lapses.
func (s *Store) Sweep(ctx context.Context) error {
	return nil
}
