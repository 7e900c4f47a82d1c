// Package ratelimit provides per-key request limiting for the contact
// submission endpoint. The default store keeps a token bucket per client IP
// in process; a Redis-backed store can be used instead so multiple instances
// share state.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter answers whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyLimiter keeps an in-process token bucket per key.
type KeyLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter creates a per-key limiter. rps is requests per second, burst
// is the bucket size. Keys idle longer than idleTTL are dropped by Cleanup.
func NewKeyLimiter(rps float64, burst int, idleTTL time.Duration) *KeyLimiter {
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &KeyLimiter{
		entries: make(map[string]*entry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Allow implements Limiter. The error is always nil for the in-process store.
func (k *KeyLimiter) Allow(_ context.Context, key string) (bool, error) {
	return k.get(key).Allow(), nil
}

func (k *KeyLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	k.mu.Lock()
	defer k.mu.Unlock()

	if ent, ok := k.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(k.rps, k.burst)
	k.entries[key] = &entry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops keys not seen within the idle TTL.
func (k *KeyLimiter) Cleanup() {
	cutoff := time.Now().Add(-k.idleTTL)

	k.mu.Lock()
	defer k.mu.Unlock()

	for key, ent := range k.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(k.entries, key)
		}
	}
}

// StartJanitor starts a goroutine that calls Cleanup periodically until the
// context is canceled.
func (k *KeyLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 2 * time.Minute
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				k.Cleanup()
			}
		}
	}()
}

// ClientIP extracts the rate-limit key from a request. chi's RealIP
// middleware already rewrites RemoteAddr from X-Forwarded-For /
// X-Real-IP when present, so RemoteAddr is the right source here.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
