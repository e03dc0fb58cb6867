// Package ratelimit throttles API clients, shared across instances through
// Redis or per process when Redis is not configured.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"truckslot/internal/metrics"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window limiter backed by Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "truckslot:rl"
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, err
	}
	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		if count, err = strconv.ParseInt(v, 10, 64); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unexpected redis script result type %T", res)
	}
	return count <= int64(l.limit), nil
}

// LocalLimiter is a per-process token bucket per client.
type LocalLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &LocalLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     10 * time.Minute,
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v := l.visitors[key]
	if v == nil {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// Options tunes the middleware.
type Options struct {
	// FailOpen lets requests through when the limiter backend errors.
	FailOpen bool
	// TrustForwardedFor keys clients by the first X-Forwarded-For hop. Enable
	// it only behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

// Middleware rejects throttled requests with 429. Limiter errors pass the
// request through when FailOpen is set and answer 503 otherwise.
func Middleware(l Limiter, logger *zerolog.Logger, opts Options) func(http.Handler) http.Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), ClientKey(r, opts.TrustForwardedFor))
			if err != nil {
				logger.Warn().Err(err).Msg("rate limiter error")
				if opts.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
			if !ok {
				metrics.IncRateLimited()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ClientKey identifies the caller by its remote address, or by the first
// X-Forwarded-For hop when trustForwarded is set.
func ClientKey(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
