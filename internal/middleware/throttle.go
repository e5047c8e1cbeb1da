package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/xecbot/xecbot-api/internal/pkg/clientip"
	"github.com/xecbot/xecbot-api/internal/pkg/response"
)

// ThrottleStore keeps one token bucket per key and forgets idle keys.
// It guards the auth endpoints only; the chat budget lives in the external
// counter.
type ThrottleStore struct {
	mu           sync.Mutex
	entries      map[string]*throttleEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewThrottleStore creates a store. Non-positive rps disables throttling.
func NewThrottleStore(rps float64, burst int) *ThrottleStore {
	if burst < 1 {
		burst = 1
	}
	return &ThrottleStore{
		entries:      make(map[string]*throttleEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
}

// Allow consumes one token for key.
func (s *ThrottleStore) Allow(key string) bool {
	if s.rps <= 0 {
		return true
	}
	now := time.Now()

	s.mu.Lock()
	ent, ok := s.entries[key]
	if !ok {
		ent = &throttleEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = ent
	}
	ent.lastSeen = now
	s.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// Cleanup drops keys not seen within the idle TTL.
func (s *ThrottleStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of tracked keys.
func (s *ThrottleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor cleans idle keys until ctx is cancelled.
func (s *ThrottleStore) StartJanitor(ctx context.Context) {
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// throttleKey is the derived client IP, or the peer address when no
// forwarding header yields one, so header-less callers do not share a bucket.
func throttleKey(r *http.Request, ips *clientip.Resolver) string {
	if ip := ips.FromRequest(r); ip != clientip.Unknown {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return clientip.Unknown
}

// Throttle limits requests per client IP.
func Throttle(store *ThrottleStore, ips *clientip.Resolver) func(http.Handler) http.Handler {
	if ips == nil {
		ips = clientip.NewResolver(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Allow(throttleKey(r, ips)) {
				response.TooManyRequests(w, "Too many authentication attempts. Please retry shortly.", time.Second)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
