package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed login attempts in redis. The window is fixed
// from the first failure; later failures never extend it, so an attacker
// cannot keep their own lockout alive by probing.
type LoginThrottle struct {
	client *redis.Client
}

func NewLoginThrottle(client *redis.Client) *LoginThrottle {
	return &LoginThrottle{client: client}
}

func (t *LoginThrottle) Count(ctx context.Context, key string) (int, error) {
	count, err := t.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (t *LoginThrottle) Increment(ctx context.Context, key string, window time.Duration) error {
	if err := t.client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	// NX: the TTL is set once, on the first failure in the window.
	return t.client.ExpireNX(ctx, key, window).Err()
}

func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, key).Err()
}
