// Package ratelimit caps contact submissions per client with a fixed-window
// counter shared through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/folio/internal/apperr"
)

const keyPrefix = "folio:rl:"

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per key in fixed windows. A nil *Limiter allows
// everything.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used when Redis is unreachable.
func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) { lim.logger = l }
}

// WithClock sets the time source that picks the window.
func WithClock(now func() time.Time) Option {
	return func(lim *Limiter) { lim.now = now }
}

// New creates a limiter on an existing client.
func New(client *redis.Client, limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	l := &Limiter{
		client: client,
		limit:  limit,
		window: window,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dial connects to redisURL and returns a limiter on it.
func Dial(ctx context.Context, redisURL string, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ratelimit: connect to redis: %w", err)
	}
	return New(client, limit, window, opts...), nil
}

func (l *Limiter) bucket(key string, now time.Time) (string, time.Time) {
	start := now.Truncate(l.window)
	return keyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10), start.Add(l.window)
}

// Allow records one hit for key in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	now := l.now()
	rkey, end := l.bucket(key, now)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, rkey)
		pipe.Expire(ctx, rkey, l.window)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true, Remaining: -1}, fmt.Errorf("ratelimit: incr %s: %w", key, err)
	}

	count := int(incr.Val())
	if count > l.limit {
		return Decision{Allowed: false, RetryAfter: end.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}

// Check is Allow reduced to an error: apperr.ErrRateLimited when the key is
// over its limit. Redis failures are logged and let the request through.
func (l *Limiter) Check(ctx context.Context, key string) (time.Duration, error) {
	d, err := l.Allow(ctx, key)
	if err != nil {
		l.logger.Warn("ratelimit: redis unavailable, allowing", slog.String("error", err.Error()))
		return 0, nil
	}
	if !d.Allowed {
		return d.RetryAfter, fmt.Errorf("ratelimit: %s: %w", key, apperr.ErrRateLimited)
	}
	return 0, nil
}

// ClientKey returns the limiter key for r: the remote IP without its port.
// Run it behind chi's RealIP middleware to key on forwarded addresses.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Close closes the Redis client.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
