// Package ratelimit throttles clients with fixed-window counters kept in
// Redis, so every server instance shares the same budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"item-server/internal/apperr"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "rl:"

type Config struct {
	Requests int
	Window   time.Duration
}

type Limiter struct {
	redis  redis.UniversalClient
	config Config
	log    zerolog.Logger
}

func New(redisClient redis.UniversalClient, cfg Config, log zerolog.Logger) *Limiter {
	return &Limiter{redis: redisClient, config: cfg, log: log}
}

// Allow counts one hit for key and returns apperr.ErrRateLimited once the
// window's budget is spent.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	if l.config.Requests <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, keyPrefix+key, l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.Requests) {
		return apperr.ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is set only by the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// Middleware limits requests per client IP. When Redis is unreachable the
// request is let through and the failure logged.
func (l *Limiter) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := l.Allow(r.Context(), clientIP(r))
			switch {
			case err == nil:
			case errors.Is(err, ErrRedisUnavailable):
				l.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			default:
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
