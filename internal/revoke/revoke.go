// Package revoke keeps a denylist of access token ids that were logged out before expiry.
package revoke

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker records and checks revoked access tokens by their jti.
type Revoker interface {
	// Revoke denies tokenID for ttl, normally the token's remaining lifetime.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	// Revoked reports whether tokenID was revoked.
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// Client is the subset of *redis.Client the denylist needs.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

const keyPrefix = "revoked:"

// Redis stores revoked ids as expiring keys.
type Redis struct{ rdb Client }

// NewRedis wraps a redis client.
func NewRedis(rdb Client) *Redis { return &Redis{rdb: rdb} }

// Connect creates and pings a Redis client with optional password auth.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Revoke stores the id until the token would have expired anyway.
func (r *Redis) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, keyPrefix+tokenID, 1, ttl).Err()
}

// Revoked reports whether the id is on the denylist.
func (r *Redis) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Nop is used when no Redis is configured; logout then ends the session row only.
type Nop struct{}

// Revoke does nothing.
func (Nop) Revoke(context.Context, string, time.Duration) error { return nil }

// Revoked always reports false.
func (Nop) Revoked(context.Context, string) (bool, error) { return false, nil }
