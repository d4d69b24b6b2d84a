package ai

import (
	"testing"
	"time"
)

func TestRateLimiterMinuteWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(nil, RateLimitConfig{MaxRequestsPerMinute: 2, MaxRequestsPerHour: 100, MaxRequestsPerDay: 1000})
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if res := l.Allow("u1", "chat"); !res.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
	}

	res := l.Allow("u1", "chat")
	if res.Allowed {
		t.Fatal("third request within the minute should be denied")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}

	// Another user is unaffected.
	if res := l.Allow("u2", "chat"); !res.Allowed {
		t.Fatal("other user should not share the window")
	}
	// Same user, different operation.
	if res := l.Allow("u1", "grade"); !res.Allowed {
		t.Fatal("operations should be tracked independently")
	}

	// Window rolls over.
	now = now.Add(time.Minute + time.Second)
	if res := l.Allow("u1", "chat"); !res.Allowed {
		t.Fatal("request after window reset should be allowed")
	}
}

func TestRateLimiterHourWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(nil, RateLimitConfig{MaxRequestsPerMinute: 1, MaxRequestsPerHour: 2, MaxRequestsPerDay: 1000})
	l.now = func() time.Time { return now }

	if res := l.Allow("u1", "chat"); !res.Allowed {
		t.Fatal("first request denied")
	}
	now = now.Add(2 * time.Minute)
	if res := l.Allow("u1", "chat"); !res.Allowed {
		t.Fatal("second request denied")
	}
	now = now.Add(2 * time.Minute)
	res := l.Allow("u1", "chat")
	if res.Allowed {
		t.Fatal("hourly limit should deny the third request")
	}
	if res.RetryAfter <= time.Minute {
		t.Fatalf("RetryAfter = %v, want remainder of the hour", res.RetryAfter)
	}
}

func TestRateLimiterZeroLimitsUnbounded(t *testing.T) {
	l := NewRateLimiter(nil, RateLimitConfig{})
	for i := 0; i < 50; i++ {
		if res := l.Allow("u1", "chat"); !res.Allowed {
			t.Fatalf("request %d denied with no limits configured", i+1)
		}
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateLimitStore()
	limits := RateLimitConfig{MaxRequestsPerMinute: 10}

	store.Hit("u1", "chat", limits, now)
	store.Hit("u2", "chat", limits, now)
	if store.Size() != 2 {
		t.Fatalf("Size = %d, want 2", store.Size())
	}

	store.Cleanup(now.Add(time.Hour))
	if store.Size() != 2 {
		t.Fatal("entries reaped before their daily window expired")
	}

	store.Cleanup(now.Add(25 * time.Hour))
	if store.Size() != 0 {
		t.Fatalf("Size = %d after expiry, want 0", store.Size())
	}
}

func TestNilRateLimiterAllows(t *testing.T) {
	var l *RateLimiter
	if res := l.Allow("u1", "chat"); !res.Allowed {
		t.Fatal("nil limiter must allow")
	}
}
