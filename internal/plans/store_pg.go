package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) ActiveSubscription(ctx context.Context, userID string) (Subscription, error) {
	const query = `
SELECT id, user_id, plan, status, current_period_start, current_period_end, created_at
FROM subscriptions
WHERE user_id = $1 AND status = 'ACTIVE'
  AND (current_period_end IS NULL OR current_period_end > now())
ORDER BY created_at DESC
LIMIT 1`

	var (
		sub         Subscription
		periodStart sql.NullTime
		periodEnd   sql.NullTime
	)
	row := s.DB.QueryRowContext(ctx, query, userID)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &periodStart, &periodEnd, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	if periodStart.Valid {
		t := periodStart.Time
		sub.CurrentPeriodStart = &t
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		sub.CurrentPeriodEnd = &t
	}
	return sub, nil
}

func (s *PGStore) PlanLimitFor(ctx context.Context, plan string) (PlanLimit, error) {
	const query = `
SELECT plan, max_interviews, max_chat_messages, max_resume_uploads, is_active, updated_at
FROM plan_limits
WHERE plan = $1 AND is_active = TRUE`

	var limit PlanLimit
	row := s.DB.QueryRowContext(ctx, query, plan)
	err := row.Scan(&limit.Plan, &limit.MaxInterviews, &limit.MaxChatMessages, &limit.MaxResumeUploads, &limit.IsActive, &limit.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlanLimit{}, ErrPlanNotConfigured
		}
		return PlanLimit{}, err
	}
	return limit, nil
}

func (s *PGStore) CountActions(ctx context.Context, userID string, action Action, from, to *time.Time) (int, error) {
	query, args := countQuery(userID, action, from, to)
	if query == "" {
		return 0, fmt.Errorf("unknown action: %s", action)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func countQuery(userID string, action Action, from, to *time.Time) (string, []any) {
	var base, timeCol string
	switch action {
	case ActionStartInterview:
		base = `SELECT COUNT(*) FROM interview_sessions WHERE user_id = $1`
		timeCol = "created_at"
	case ActionResumeUpload:
		base = `SELECT COUNT(*) FROM interview_sessions WHERE user_id = $1 AND resume_text IS NOT NULL`
		timeCol = "created_at"
	case ActionChatMessage:
		base = `
SELECT COUNT(*) FROM chat_messages m
JOIN chat_sessions s ON s.id = m.session_id
WHERE s.user_id = $1 AND m.role = 'USER'`
		timeCol = "m.created_at"
	default:
		return "", nil
	}

	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		base += fmt.Sprintf(" AND %s >= $%d", timeCol, len(args))
	}
	if to != nil {
		args = append(args, *to)
		base += fmt.Sprintf(" AND %s <= $%d", timeCol, len(args))
	}
	return base, args
}

func (s *PGStore) UpsertPlanLimit(ctx context.Context, limit PlanLimit) error {
	const query = `
INSERT INTO plan_limits (plan, max_interviews, max_chat_messages, max_resume_uploads, is_active, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (plan) DO UPDATE SET
	max_interviews = EXCLUDED.max_interviews,
	max_chat_messages = EXCLUDED.max_chat_messages,
	max_resume_uploads = EXCLUDED.max_resume_uploads,
	is_active = EXCLUDED.is_active,
	updated_at = now()`

	_, err := s.DB.ExecContext(ctx, query,
		limit.Plan, limit.MaxInterviews, limit.MaxChatMessages, limit.MaxResumeUploads, limit.IsActive)
	return err
}

func (s *PGStore) ListPlanLimits(ctx context.Context) ([]PlanLimit, error) {
	const query = `
SELECT plan, max_interviews, max_chat_messages, max_resume_uploads, is_active, updated_at
FROM plan_limits
ORDER BY plan`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var limits []PlanLimit
	for rows.Next() {
		var limit PlanLimit
		if err := rows.Scan(&limit.Plan, &limit.MaxInterviews, &limit.MaxChatMessages, &limit.MaxResumeUploads, &limit.IsActive, &limit.UpdatedAt); err != nil {
			return nil, err
		}
		limits = append(limits, limit)
	}
	return limits, rows.Err()
}
