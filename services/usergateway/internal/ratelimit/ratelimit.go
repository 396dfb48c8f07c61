// Package ratelimit is an optional per-client token bucket placed in front of
// the user routes.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/user-gateway/internal/platform/api"
	"github.com/example/user-gateway/internal/platform/httpserver"
)

// idleTTL is how long an untouched bucket is kept before it is purged.
const idleTTL = 10 * time.Minute

// Limiter implements a per-client token bucket keyed by client IP.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens per second
	burst     int
	now       func() time.Time
	lastPurge time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// New creates a limiter with the given rate (req/s) and burst size. A burst
// below one is raised to one.
func New(rate float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// purge drops idle buckets at most once per idleTTL. Callers hold l.mu.
func (l *Limiter) purge(now time.Time) {
	if now.Sub(l.lastPurge) < idleTTL {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.last) >= idleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastPurge = now
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			rid := httpserver.RequestIDFromContext(r.Context())
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			api.RateLimited(w, "RATE_LIMITED", "Too many requests", rid, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) retryAfter() int {
	if l.rate <= 0 {
		return 1
	}
	s := int(1/l.rate + 0.999)
	if s < 1 {
		s = 1
	}
	return s
}

// clientKey is the first X-Forwarded-For hop, else the remote host.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
