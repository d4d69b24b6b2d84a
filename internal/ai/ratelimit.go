package ai

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig bounds request bursts per user and operation. These
// limits protect the upstream providers; business entitlements are
// enforced separately by the plans service.
type RateLimitConfig struct {
	MaxRequestsPerMinute int
	MaxRequestsPerHour   int
	MaxRequestsPerDay    int
}

// DefaultRateLimits returns the advisory provider-protection limits.
func DefaultRateLimits() RateLimitConfig {
	return RateLimitConfig{
		MaxRequestsPerMinute: 10,
		MaxRequestsPerHour:   100,
		MaxRequestsPerDay:    1000,
	}
}

// RateLimitResult reports a limiter decision.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimitStore tracks rolling request windows. Implementations must be
// safe for concurrent use; the in-memory store is per-process, so a
// multi-instance deployment should inject a shared implementation.
type RateLimitStore interface {
	Hit(userID, operation string, limits RateLimitConfig, now time.Time) RateLimitResult
	Reset(userID, operation string)
	Cleanup(now time.Time)
}

type rateEntry struct {
	minuteCount int
	minuteReset time.Time
	hourCount   int
	hourReset   time.Time
	dayCount    int
	dayReset    time.Time
}

// MemoryRateLimitStore is the in-process RateLimitStore.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
}

// NewMemoryRateLimitStore constructs an empty store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{entries: make(map[string]*rateEntry)}
}

// Hit records one request and reports whether it is allowed.
func (s *MemoryRateLimitStore) Hit(userID, operation string, limits RateLimitConfig, now time.Time) RateLimitResult {
	key := userID + ":" + operation

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.dayReset) {
		entry = &rateEntry{
			minuteReset: now.Add(time.Minute),
			hourReset:   now.Add(time.Hour),
			dayReset:    now.Add(24 * time.Hour),
		}
		s.entries[key] = entry
	}
	if !now.Before(entry.minuteReset) {
		entry.minuteCount = 0
		entry.minuteReset = now.Add(time.Minute)
	}
	if !now.Before(entry.hourReset) {
		entry.hourCount = 0
		entry.hourReset = now.Add(time.Hour)
	}

	if limits.MaxRequestsPerMinute > 0 && entry.minuteCount >= limits.MaxRequestsPerMinute {
		return denied(entry.minuteReset, now)
	}
	if limits.MaxRequestsPerHour > 0 && entry.hourCount >= limits.MaxRequestsPerHour {
		return denied(entry.hourReset, now)
	}
	if limits.MaxRequestsPerDay > 0 && entry.dayCount >= limits.MaxRequestsPerDay {
		return denied(entry.dayReset, now)
	}

	entry.minuteCount++
	entry.hourCount++
	entry.dayCount++

	remaining := limits.MaxRequestsPerMinute - entry.minuteCount
	if r := limits.MaxRequestsPerHour - entry.hourCount; r < remaining {
		remaining = r
	}
	if r := limits.MaxRequestsPerDay - entry.dayCount; r < remaining {
		remaining = r
	}
	return RateLimitResult{Allowed: true, Remaining: remaining, ResetAt: entry.minuteReset}
}

// Reset clears the windows for one (user, operation) pair.
func (s *MemoryRateLimitStore) Reset(userID, operation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID+":"+operation)
}

// Cleanup reaps entries whose daily window has expired.
func (s *MemoryRateLimitStore) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if !now.Before(entry.dayReset) {
			delete(s.entries, key)
		}
	}
}

// Size reports the number of tracked (user, operation) pairs.
func (s *MemoryRateLimitStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func denied(resetAt time.Time, now time.Time) RateLimitResult {
	return RateLimitResult{
		Allowed:    false,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}
}

// RateLimitError reports a denied request with the suggested wait.
type RateLimitError struct {
	Operation  string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Operation, e.RetryAfter.Round(time.Second))
}

// RateLimiter combines a store with configured limits.
type RateLimiter struct {
	Store  RateLimitStore
	Limits RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter builds a limiter; a nil store gets an in-memory one.
func NewRateLimiter(store RateLimitStore, limits RateLimitConfig) *RateLimiter {
	if store == nil {
		store = NewMemoryRateLimitStore()
	}
	return &RateLimiter{Store: store, Limits: limits, now: time.Now}
}

// Allow records a request for (userID, operation) and reports the decision.
// A nil limiter always allows.
func (l *RateLimiter) Allow(userID, operation string) RateLimitResult {
	if l == nil || l.Store == nil {
		return RateLimitResult{Allowed: true}
	}
	now := l.now()
	// Lazy reap keeps the map bounded without a background goroutine.
	l.Store.Cleanup(now)
	return l.Store.Hit(userID, operation, l.Limits, now)
}
