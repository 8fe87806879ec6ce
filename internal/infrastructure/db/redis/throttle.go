package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleWindow = 15 * time.Minute
	throttleLimit  = 20
)

// AuthThrottle rate-limits failed credential checks per client address.
// Key format: authfail:<client_ip>, expiring after throttleWindow.
// It only ever blocks clients that keep failing; successful requests are
// never counted, so auth semantics are unaffected.
type AuthThrottle struct {
	client *redis.Client
}

// NewAuthThrottle creates an AuthThrottle wrapping the given Redis client.
func NewAuthThrottle(client *redis.Client) *AuthThrottle {
	return &AuthThrottle{client: client}
}

// Allow reports whether the address is still under the failure limit.
func (t *AuthThrottle) Allow(ctx context.Context, ip string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(ip)).Int64()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return true, fmt.Errorf("throttle check: %w", err)
	}
	return n < throttleLimit, nil
}

// RecordFailure counts one failed attempt against the address. The window
// starts at the first failure and is not extended by later ones.
func (t *AuthThrottle) RecordFailure(ctx context.Context, ip string) error {
	key := t.key(ip)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, throttleWindow).Err(); err != nil {
			return fmt.Errorf("throttle expire: %w", err)
		}
	}
	return nil
}

func (t *AuthThrottle) key(ip string) string {
	return fmt.Sprintf("authfail:%s", ip)
}
