package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linkwell/orderdesk/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyShareView = "share:view:ip:%s"

// ShareViewLimiter throttles the public share-link endpoint per source IP.
// It runs against redis when configured, and falls back to an in-process
// fixed window otherwise (single instance deployments and tests).
type ShareViewLimiter struct {
	bucket *TokenBucket
	window *fixedWindow

	rate  float64
	burst int
}

func NewShareViewLimiter(cfg config.Config) *ShareViewLimiter {
	rate := cfg.ShareViewRate
	if rate <= 0 {
		rate = 30
	}
	burst := cfg.ShareViewBurst
	if burst <= 0 {
		burst = 10
	}

	limiter := &ShareViewLimiter{
		rate:  float64(rate) / 60.0,
		burst: burst,
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.RedisPassword),
		})
		limiter.bucket = NewTokenBucket(client)
	} else {
		limiter.window = newFixedWindow(rate, time.Minute)
	}
	return limiter
}

func (l *ShareViewLimiter) Allow(ctx context.Context, ip string) (*Result, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	if l.bucket != nil {
		return l.bucket.Allow(ctx, fmt.Sprintf(keyShareView, ip), l.rate, l.burst)
	}
	return l.window.allow(ip), nil
}

// fixedWindow is the redis-less fallback: a per-key counter reset every
// window.
type fixedWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

func newFixedWindow(limit int, window time.Duration) *fixedWindow {
	return &fixedWindow{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

func (w *fixedWindow) allow(key string) *Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	counter := w.counters[key]
	if counter == nil || now.After(counter.resetAt) {
		counter = &windowCounter{resetAt: now.Add(w.window)}
		w.counters[key] = counter
	}

	if counter.count >= w.limit {
		return &Result{
			Allowed:    false,
			Limit:      w.limit,
			Remaining:  0,
			RetryAfter: time.Until(counter.resetAt),
		}
	}
	counter.count++
	return &Result{
		Allowed:   true,
		Limit:     w.limit,
		Remaining: w.limit - counter.count,
	}
}
