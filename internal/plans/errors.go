package plans

import (
	"errors"
	"fmt"
)

var (
	ErrNoSubscription = errors.New("no active subscription")
	// ErrPlanNotConfigured is an operator problem, not a user problem.
	ErrPlanNotConfigured = errors.New("plan limits not configured")
)

// QuotaError reports a reached usage ceiling. It carries the plan and
// limit so handlers can drive upgrade messaging.
type QuotaError struct {
	Plan   string
	Limit  int
	Action Action
	Period bool
}

func (e *QuotaError) Error() string {
	if e.Period {
		return fmt.Sprintf("%s plan monthly limit reached (%d %s). Upgrade to continue.", e.Plan, e.Limit, actionNoun(e.Action))
	}
	return fmt.Sprintf("%s plan limit reached (%d %s). Upgrade to continue.", e.Plan, e.Limit, actionNoun(e.Action))
}

func actionNoun(action Action) string {
	switch action {
	case ActionStartInterview:
		return "interviews"
	case ActionChatMessage:
		return "messages"
	case ActionResumeUpload:
		return "resume uploads"
	default:
		return string(action)
	}
}
