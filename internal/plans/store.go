package plans

import (
	"context"
	"time"
)

// Store defines persistence operations for quota resolution and plan
// administration.
type Store interface {
	// ActiveSubscription returns the user's ACTIVE subscription whose
	// period has not ended; ErrNoSubscription when there is none.
	ActiveSubscription(ctx context.Context, userID string) (Subscription, error)
	// PlanLimitFor returns the active limit row for a plan;
	// ErrPlanNotConfigured when absent or inactive.
	PlanLimitFor(ctx context.Context, plan string) (PlanLimit, error)
	// CountActions counts occurrences of action by the user. Nil bounds
	// mean lifetime counting.
	CountActions(ctx context.Context, userID string, action Action, from, to *time.Time) (int, error)

	UpsertPlanLimit(ctx context.Context, limit PlanLimit) error
	ListPlanLimits(ctx context.Context) ([]PlanLimit, error)
}
