package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
)

const refreshTokenKeyPrefix = "refresh_token:"

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RefreshTokenKey returns the session store key owning userID's refresh token.
func RefreshTokenKey(userID string) string {
	return refreshTokenKeyPrefix + userID
}

// SessionRepository keeps the single live refresh token per user in Redis.
type SessionRepository struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewSessionRepository constructs a session repository. A positive timeout
// bounds every round trip.
func NewSessionRepository(client redis.UniversalClient, timeout time.Duration) *SessionRepository {
	return &SessionRepository{client: client, timeout: timeout}
}

// Put overwrites the user's refresh token entry with the given TTL.
func (r *SessionRepository) Put(ctx context.Context, userID, token string, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := RefreshTokenKey(userID)
	if err := r.client.Set(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns the stored refresh token or ErrCacheMiss when none is live.
func (r *SessionRepository) Get(ctx context.Context, userID string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := RefreshTokenKey(userID)
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// DeleteIfMatch removes the user's entry only when it still holds token.
func (r *SessionRepository) DeleteIfMatch(ctx context.Context, userID, token string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := RefreshTokenKey(userID)
	n, err := compareAndDelete.Run(ctx, r.client, []string{key}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete %s: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes the user's entry regardless of its value.
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := RefreshTokenKey(userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *SessionRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *SessionRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
