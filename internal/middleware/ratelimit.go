package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/DukeRupert/csnm/internal/domain"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// Limiter decides whether one more request for key fits in the current
// window. When it does not, retryAfter is the time left in the window.
//
// Implementations:
// - RateLimiter: in-process fixed windows
// - RedisRateLimiter: fixed windows shared by every instance through Redis
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing maxAttempts per window.
// Call Close to stop the background cleanup.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		entries:     make(map[string]*rateLimitEntry),
		stop:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow records an attempt for key.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true, 0, nil
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true, 0, nil
	}

	return false, rl.window - now.Sub(entry.windowStart), nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup periodically removes expired entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, entry := range rl.entries {
				if now.Sub(entry.windowStart) > rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// ErrorFunc writes the response for a failed request.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware on
// JSON endpoints.
type RateLimitMiddleware struct {
	limiter Limiter
	onError ErrorFunc
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware. Rejected
// requests are passed to onError with a domain.ERATELIMIT error after the
// Retry-After header is set.
func NewRateLimitMiddleware(limiter Limiter, onError ErrorFunc, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		onError: onError,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests by client IP.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, retryAfter, err := m.limiter.Allow(r.Context(), ip)
		if err != nil {
			// Fail open when the store is unreachable.
			m.logger.Error("rate limiter unavailable", "ip", ip, "error", err)
			allowed = true
		}

		if !allowed {
			m.logger.Warn("rate limit exceeded",
				"ip", ip,
				"path", r.URL.Path,
				"method", r.Method,
			)

			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			m.onError(w, r, domain.Errorf(domain.ERATELIMIT, "middleware.Limit", "rate limit exceeded for %s", ip))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// clientIP returns the host part of RemoteAddr. Proxy headers are applied
// earlier by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
