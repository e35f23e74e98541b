package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitStore decides whether one more request fits in a key's per-minute
// budget.
type LimitStore interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

var authPaths = map[string]struct{}{
	"/login":          {},
	"/signup":         {},
	"/reset-password": {},
}

// RateLimitMiddleware keeps a general budget per client and a tighter one
// for the credential endpoints. A budget of zero or less disables it.
// Clients are keyed by peer address unless the peer is a trusted proxy.
type RateLimitMiddleware struct {
	generalRPM     int
	authRPM        int
	store          LimitStore
	trustedProxies []netip.Prefix
}

func NewRateLimitMiddleware(generalRPM int, authRPM int, store LimitStore, trustedProxies []netip.Prefix) *RateLimitMiddleware {
	if store == nil {
		store = NewMemoryLimitStore()
	}

	return &RateLimitMiddleware{
		generalRPM:     generalRPM,
		authRPM:        authRPM,
		store:          store,
		trustedProxies: trustedProxies,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket, limit := "general", m.generalRPM
		if _, ok := authPaths[strings.ToLower(r.URL.Path)]; ok {
			bucket, limit = "auth", m.authRPM
		}

		if limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := m.store.Allow(r.Context(), bucket+":"+clientIP(r, m.trustedProxies), limit)
		if err != nil {
			// Fail open.
			slog.Warn("rate limiter unavailable", "error", err)
			allowed = true
		}

		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimitStore is a token bucket per key, local to this process.
type MemoryLimitStore struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{clients: map[string]*limiterEntry{}}
}

func (s *MemoryLimitStore) Allow(_ context.Context, key string, perMinute int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.clients[key]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		}
		s.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	s.gcLocked()

	return entry.limiter.Allow(), nil
}

func (s *MemoryLimitStore) gcLocked() {
	if len(s.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range s.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(s.clients, key)
		}
	}
}
