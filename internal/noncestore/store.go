// Package noncestore defines the atomic, TTL'd, single-use nonce store the
// Signed-Request Authenticator's verifier relies on for replay protection
// (§4.5.5). Three backends satisfy Store: memstore (dev fallback, forfeits
// replay protection across restarts), sqlstore (gorm, durable), and
// redisstore (go-redis, durable and shared across verifier instances).
package noncestore

import (
	"context"
	"time"
)

// Store is the minimal contract every backend must satisfy. Insert must be
// atomic: concurrent inserts of the same nonce return inserted=false to all
// but one caller, and a rejected insert leaves the store's prior state
// unchanged.
type Store interface {
	Insert(ctx context.Context, nonce string, ttl time.Duration) (inserted bool, err error)
	Sweep(ctx context.Context) error
}
