package plans

import (
	"context"
	"sync"
	"time"
)

// actionEvent is one counted occurrence of an action.
type actionEvent struct {
	Action Action
	At     time.Time
}

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[string]Subscription
	limits        map[string]PlanLimit
	events        map[string][]actionEvent
	now           func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a MemoryStore seeded with the default plans.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		subscriptions: make(map[string]Subscription),
		limits:        make(map[string]PlanLimit),
		events:        make(map[string][]actionEvent),
		now:           time.Now,
	}
	for _, limit := range []PlanLimit{
		{Plan: PlanFree, MaxInterviews: 2, MaxChatMessages: 20, MaxResumeUploads: 2, IsActive: true},
		{Plan: PlanBasic, MaxInterviews: 10, MaxChatMessages: 500, MaxResumeUploads: 10, IsActive: true},
		{Plan: PlanPro, MaxInterviews: Unlimited, MaxChatMessages: Unlimited, MaxResumeUploads: Unlimited, IsActive: true},
	} {
		s.limits[limit.Plan] = limit
	}
	return s
}

// SetSubscription installs a subscription for a user.
func (s *MemoryStore) SetSubscription(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.UserID] = sub
}

// RecordAction registers one occurrence of an action at the given time.
func (s *MemoryStore) RecordAction(userID string, action Action, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[userID] = append(s.events[userID], actionEvent{Action: action, At: at})
}

func (s *MemoryStore) ActiveSubscription(ctx context.Context, userID string) (Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[userID]
	if !ok || sub.Status != "ACTIVE" {
		return Subscription{}, ErrNoSubscription
	}
	if sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(s.now()) {
		return Subscription{}, ErrNoSubscription
	}
	return sub, nil
}

func (s *MemoryStore) PlanLimitFor(ctx context.Context, plan string) (PlanLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit, ok := s.limits[plan]
	if !ok || !limit.IsActive {
		return PlanLimit{}, ErrPlanNotConfigured
	}
	return limit, nil
}

func (s *MemoryStore) CountActions(ctx context.Context, userID string, action Action, from, to *time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ev := range s.events[userID] {
		if ev.Action != action {
			continue
		}
		if from != nil && ev.At.Before(*from) {
			continue
		}
		if to != nil && ev.At.After(*to) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *MemoryStore) UpsertPlanLimit(ctx context.Context, limit PlanLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit.UpdatedAt = s.now()
	s.limits[limit.Plan] = limit
	return nil
}

func (s *MemoryStore) ListPlanLimits(ctx context.Context) ([]PlanLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limits := make([]PlanLimit, 0, len(s.limits))
	for _, limit := range s.limits {
		limits = append(limits, limit)
	}
	return limits, nil
}
