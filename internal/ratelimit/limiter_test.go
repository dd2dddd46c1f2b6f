package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"item-server/internal/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestAllow_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := New(client, Config{Requests: 3, Window: time.Minute}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "10.0.0.1"))
	}
	require.ErrorIs(t, limiter.Allow(ctx, "10.0.0.1"), apperr.ErrRateLimited)
	require.NoError(t, limiter.Allow(ctx, "10.0.0.2"), "other clients keep their own budget")

	require.Equal(t, time.Minute, mr.TTL(keyPrefix+"10.0.0.1"))

	mr.FastForward(time.Minute)
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1"))
}

func TestAllow_DisabledWhenNoBudget(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := New(client, Config{Requests: 0, Window: time.Minute}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Allow(context.Background(), "ip"))
	}
}

func TestAllow_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := New(client, Config{Requests: 1, Window: time.Minute}, zerolog.Nop())
	mr.Close()

	require.ErrorIs(t, limiter.Allow(context.Background(), "ip"), ErrRedisUnavailable)
}

func TestMiddleware(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := New(client, Config{Requests: 1, Window: time.Minute}, zerolog.Nop())

	handler := limiter.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(apperr.Status(err))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := New(client, Config{Requests: 1, Window: time.Minute}, zerolog.Nop())
	mr.Close()

	handler := limiter.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(apperr.Status(err))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
