package plans

import (
	"context"
	"time"

	"intervie-backend/internal/shared/metrics"
	"intervie-backend/internal/shared/telemetry"
)

// Service enforces plan-based usage ceilings. Enforcement runs before any
// provider call or persistence so a denied action leaves no side effects.
type Service struct {
	Store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{Store: store, now: time.Now}
}

// Enforce decides whether the user may perform the action right now.
// Paying tiers count within the billing period; FREE counts lifetime.
func (s *Service) Enforce(ctx context.Context, userID string, action Action) error {
	plan := PlanFree
	var sub Subscription
	active := false

	got, err := s.Store.ActiveSubscription(ctx, userID)
	switch err {
	case nil:
		sub = got
		plan = sub.Plan
		active = true
	case ErrNoSubscription:
	default:
		return err
	}

	limit, err := s.Store.PlanLimitFor(ctx, plan)
	if err != nil {
		return err
	}

	ceiling := limit.LimitFor(action)
	if ceiling == Unlimited {
		return nil
	}

	var from, to *time.Time
	period := false
	if active && plan != PlanFree {
		period = true
		start, end := s.periodBounds(sub)
		from, to = &start, &end
	}

	used, err := s.Store.CountActions(ctx, userID, action, from, to)
	if err != nil {
		return err
	}
	if used >= ceiling {
		metrics.IncQuotaDenied()
		telemetry.Info("quota.denied", map[string]any{
			"user_id": userID,
			"plan":    plan,
			"action":  string(action),
			"limit":   ceiling,
			"used":    used,
		})
		return &QuotaError{Plan: plan, Limit: ceiling, Action: action, Period: period}
	}
	return nil
}

// Snapshot reports current consumption against the user's limit for one
// action, for the usage endpoint.
func (s *Service) Snapshot(ctx context.Context, userID string, action Action) (Usage, error) {
	plan := PlanFree
	var sub Subscription
	active := false

	got, err := s.Store.ActiveSubscription(ctx, userID)
	switch err {
	case nil:
		sub = got
		plan = sub.Plan
		active = true
	case ErrNoSubscription:
	default:
		return Usage{}, err
	}

	limit, err := s.Store.PlanLimitFor(ctx, plan)
	if err != nil {
		return Usage{}, err
	}

	usage := Usage{Plan: plan, Action: action, Limit: limit.LimitFor(action)}

	var from, to *time.Time
	if active && plan != PlanFree {
		start, end := s.periodBounds(sub)
		from, to = &start, &end
		usage.PeriodStart, usage.PeriodEnd = from, to
	}

	used, err := s.Store.CountActions(ctx, userID, action, from, to)
	if err != nil {
		return Usage{}, err
	}
	usage.Used = used
	return usage, nil
}

// periodBounds resolves the accounting window for a paying subscription,
// defaulting missing bounds to the current calendar month.
func (s *Service) periodBounds(sub Subscription) (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	if sub.CurrentPeriodStart != nil {
		start = *sub.CurrentPeriodStart
	}
	if sub.CurrentPeriodEnd != nil {
		end = *sub.CurrentPeriodEnd
	}
	return start, end
}
