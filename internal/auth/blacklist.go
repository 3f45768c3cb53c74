package auth

import (
	"context"
	"time"
)

// TokenBlacklist records revoked JWT IDs until their natural expiry.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, expiry time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
