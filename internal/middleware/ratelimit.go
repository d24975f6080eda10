package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/cache"
	"github.com/pclub/portal/api/internal/model"
)

// Counter increments a fixed-window counter and reports the count and the
// time left in the window. *cache.Cache implements it on Redis.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimiter implements fixed window rate limiting on a shared counter, so
// limits hold across server instances.
type RateLimiter struct {
	counter Counter
	scope   string
	rate    int           // Requests per window
	window  time.Duration // Time window
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Scope  string        // Key namespace (default "api")
	Rate   int           // Requests per window (default 100)
	Window time.Duration // Time window (default 1 minute)
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(counter Counter, cfg RateLimitConfig) *RateLimiter {
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	if cfg.Rate == 0 {
		cfg.Rate = 100
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}

	return &RateLimiter{
		counter: counter,
		scope:   cfg.Scope,
		rate:    cfg.Rate,
		window:  cfg.Window,
	}
}

// Allow checks if a request is allowed for the given key. When the counter
// is unreachable the request is allowed.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, resetTime time.Time) {
	count, ttl, err := rl.counter.Incr(ctx, cache.RateLimitKey(rl.scope, key), rl.window)
	if err != nil {
		slog.Warn("rate limit counter unavailable", slog.String("scope", rl.scope), slog.String("error", err.Error()))
		return true, rl.rate, time.Now().Add(rl.window)
	}

	resetTime = time.Now().Add(ttl)
	remaining = rl.rate - int(count)
	if remaining < 0 {
		return false, 0, resetTime
	}
	return true, remaining, resetTime
}

// clientKey identifies the caller: user ID if authenticated, otherwise IP
func clientKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return id
	}
	return ClientIP(r)
}

const clientIPKey contextKey = "clientIP"

// RealIP resolves the caller's address once per request and stores it for
// ClientIP. X-Forwarded-For is honoured only when the direct peer is in
// trusted; the client is then the rightmost hop that is not itself trusted.
func RealIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientIPKey, resolveClientIP(r, trusted))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r)
	if !isTrustedProxy(peer, trusted) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return peer
		}
		if !isTrustedProxy(hop, trusted) {
			return hop
		}
		peer = hop
	}
	return peer
}

func isTrustedProxy(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ClientIP returns the address resolved by RealIP, or the remote host when
// RealIP is not in the chain. Request headers alone never change it.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

// RateLimit returns a middleware that applies rate limiting
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetTime := limiter.Allow(r.Context(), clientKey(r))

			// Set rate limit headers
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
