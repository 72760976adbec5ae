package port

import (
	"context"
	"time"
)

type AttemptGuard interface {
	// Claim marks key as processed for ttl, returns false if it is already held
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim so the key can be claimed again
	Release(ctx context.Context, key string) error
}
