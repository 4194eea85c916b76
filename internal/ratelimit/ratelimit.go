// Package ratelimit throttles requests per client address.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	apperrors "restopos/internal/errors"
	"restopos/internal/ids"
	"restopos/internal/logging"
)

const tooManyRequests = "Too many requests from this IP, please try again later"

// slidingWindow keeps one sorted-set member per accepted request, scored by
// its arrival time in milliseconds. Requests are admitted while fewer than
// ARGV[3] members fall inside the trailing window.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// SlidingWindowStore is a Redis-backed echo RateLimiterStore.
// Counts are shared by every instance pointing at the same Redis.
type SlidingWindowStore struct {
	client  *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     logging.Logger
}

var _ middleware.RateLimiterStore = (*SlidingWindowStore)(nil)

// NewSlidingWindowStore allows limit requests per identifier within window.
func NewSlidingWindowStore(client *redis.Client, prefix string, limit int, window time.Duration, log logging.Logger) *SlidingWindowStore {
	return &SlidingWindowStore{
		client:  client,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		log:     log.With("component", "ratelimit"),
	}
}

// Allow records a request for identifier and reports whether it is within
// the limit. Redis failures let the request through.
func (s *SlidingWindowStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := s.now().UnixMilli()
	allowed, err := slidingWindow.Run(ctx, s.client,
		[]string{s.prefix + identifier},
		now, s.window.Milliseconds(), s.limit, ids.NewRequestID(),
	).Int()
	if err != nil {
		s.log.Warn(ctx, "rate limit check failed, allowing request", "identifier", identifier, "error", err)
		return true, nil
	}
	return allowed == 1, nil
}

// Window is the length of the sliding window.
func (s *SlidingWindowStore) Window() time.Duration {
	return s.window
}

// NewMemoryStore is a per-process token bucket refilling max tokens per window.
func NewMemoryStore(max int, window time.Duration) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(max) / window.Seconds()),
		Burst:     max,
		ExpiresIn: window,
	})
}

// Middleware rejects requests over the store's limit with 429 and a
// RATE_LIMITED error body. Clients are identified by their real IP.
func Middleware(store middleware.RateLimiterStore, retryAfter time.Duration) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "unable to identify client",
				Code:  apperrors.CodeInvalidRequest,
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			return c.JSON(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: tooManyRequests,
				Code:  apperrors.CodeRateLimited,
			})
		},
	})
}
