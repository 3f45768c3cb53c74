package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trailbook/internal/auth"
)

const blacklistKeyPrefix = "bl:jti:"

// redisTokenBlacklist is the Redis-backed implementation of auth.TokenBlacklist.
type redisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client}
}

// Add blacklists the jti for the remaining lifetime of its token. Entries for
// already expired tokens are skipped since JWT validation rejects them anyway.
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	key := blacklistKeyPrefix + jti
	if err := r.client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		return fmt.Errorf("adding JTI %s to blacklist: %w", jti, err)
	}
	return nil
}

// IsBlacklisted reports whether the jti has been revoked.
func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := blacklistKeyPrefix + jti
	_, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking blacklist for JTI %s: %w", jti, err)
	}
	return true, nil
}
