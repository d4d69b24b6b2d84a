package plans

import "time"

// Plan tiers.
const (
	PlanFree  = "FREE"
	PlanBasic = "BASIC"
	PlanPro   = "PRO"
)

// Unlimited marks a limit with no ceiling.
const Unlimited = -1

// Action identifies a quota-counted operation.
type Action string

const (
	ActionStartInterview Action = "start_interview"
	ActionChatMessage    Action = "chat_message"
	ActionResumeUpload   Action = "resume_upload"
)

// PlanLimit holds the per-plan usage ceilings. A value of -1 means
// unlimited. Rows are admin-managed and hot-reconfigurable.
type PlanLimit struct {
	Plan             string    `json:"plan"`
	MaxInterviews    int       `json:"maxInterviews"`
	MaxChatMessages  int       `json:"maxChatMessages"`
	MaxResumeUploads int       `json:"maxResumeUploads"`
	IsActive         bool      `json:"isActive"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LimitFor returns the ceiling for one action.
func (p PlanLimit) LimitFor(action Action) int {
	switch action {
	case ActionStartInterview:
		return p.MaxInterviews
	case ActionChatMessage:
		return p.MaxChatMessages
	case ActionResumeUpload:
		return p.MaxResumeUploads
	default:
		return 0
	}
}

// Subscription is a user's billing subscription, written by the billing
// webhook pipeline and read here for quota resolution.
type Subscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// Usage is a snapshot of consumption against one plan limit.
type Usage struct {
	Plan        string     `json:"plan"`
	Action      Action     `json:"action"`
	Limit       int        `json:"limit"`
	Used        int        `json:"used"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
}
