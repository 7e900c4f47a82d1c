package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyLimiter_BurstThenDeny(t *testing.T) {
	kl := NewKeyLimiter(0.001, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := kl.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}

	ok, _ := kl.Allow(ctx, "1.2.3.4")
	if ok {
		t.Error("request beyond burst should be denied")
	}
}

func TestKeyLimiter_KeysAreIndependent(t *testing.T) {
	kl := NewKeyLimiter(0.001, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := kl.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("first key should be allowed")
	}
	if ok, _ := kl.Allow(ctx, "5.6.7.8"); !ok {
		t.Error("second key should have its own bucket")
	}
	if ok, _ := kl.Allow(ctx, "1.2.3.4"); ok {
		t.Error("first key should be exhausted")
	}
}

func TestKeyLimiter_CleanupDropsIdleKeys(t *testing.T) {
	kl := NewKeyLimiter(1, 1, time.Nanosecond)
	ctx := context.Background()

	_, _ = kl.Allow(ctx, "1.2.3.4")
	time.Sleep(time.Millisecond)
	kl.Cleanup()

	kl.mu.Lock()
	n := len(kl.entries)
	kl.mu.Unlock()
	if n != 0 {
		t.Errorf("expected 0 entries after cleanup, got %d", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"host and port", "203.0.113.7:54321", "203.0.113.7"},
		{"ipv6 host and port", "[2001:db8::1]:443", "2001:db8::1"},
		{"bare host", "203.0.113.7", "203.0.113.7"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
			}
		})
	}
}
