// Package ratelimit provides sliding window limits backed by Redis with a
// process-local fallback.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// slidingWindowScript trims entries older than the window, then admits the
// request if the remaining count is below the limit. A denial returns the
// negative number of milliseconds until the oldest entry leaves the window.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < max_requests then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, window_ms * 2)
		return 1
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if #oldest > 0 then
		return -(oldest[2] + window_ms - now)
	end
	return 0
`)

// SlidingWindowLimiter implements sliding window rate limiting using Redis.
// When Redis is absent or failing it falls back to a LocalLimiter so that a
// Redis outage never disables the limit entirely.
type SlidingWindowLimiter struct {
	redis    *redis.Client
	prefix   string
	limit    int
	window   time.Duration
	fallback *LocalLimiter
}

// NewSlidingWindowLimiter creates a limiter admitting limit requests per window.
func NewSlidingWindowLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:    redisClient,
		prefix:   prefix,
		limit:    limit,
		window:   window,
		fallback: NewLocalLimiter(limit, window),
	}
}

func (l *SlidingWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)
}

// Allow checks if request is allowed and returns wait duration if not.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.redis == nil {
		return l.fallback.Allow(ctx, key)
	}

	now := time.Now()
	result, err := slidingWindowScript.Run(ctx, l.redis,
		[]string{l.redisKey(key)},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64()
	if err != nil {
		return l.fallback.Allow(ctx, key)
	}

	if result == 1 {
		return true, 0
	}
	if result < 0 {
		return false, time.Duration(-result) * time.Millisecond
	}
	return false, l.window
}

// LocalLimiter is a fixed window counter kept in process memory.
type LocalLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string]*windowCount
	now      func() time.Time
}

type windowCount struct {
	count     int
	expiresAt time.Time
}

// NewLocalLimiter creates a process-local limiter.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:    limit,
		window:   window,
		requests: make(map[string]*windowCount),
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	info, ok := l.requests[key]
	if !ok || now.After(info.expiresAt) {
		l.sweep(now)
		l.requests[key] = &windowCount{count: 1, expiresAt: now.Add(l.window)}
		return true, 0
	}
	if info.count >= l.limit {
		return false, info.expiresAt.Sub(now)
	}
	info.count++
	return true, 0
}

// sweep drops expired windows; must be called with mu held.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, info := range l.requests {
		if now.After(info.expiresAt) {
			delete(l.requests, k)
		}
	}
}
