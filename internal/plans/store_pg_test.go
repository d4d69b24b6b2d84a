package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreActiveSubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 1, 0)

	rows := sqlmock.NewRows([]string{"id", "user_id", "plan", "status", "current_period_start", "current_period_end", "created_at"}).
		AddRow("sub-1", "user-1", PlanBasic, "ACTIVE", now, periodEnd, now)
	mock.ExpectQuery("SELECT id, user_id, plan, status").
		WithArgs("user-1").
		WillReturnRows(rows)

	sub, err := store.ActiveSubscription(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ActiveSubscription: %v", err)
	}
	if sub.Plan != PlanBasic {
		t.Fatalf("Plan = %s", sub.Plan)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("CurrentPeriodEnd = %v", sub.CurrentPeriodEnd)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreActiveSubscriptionAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectQuery("SELECT id, user_id, plan, status").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "plan", "status", "current_period_start", "current_period_end", "created_at"}))

	if _, err := store.ActiveSubscription(context.Background(), "user-1"); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("err = %v, want ErrNoSubscription", err)
	}
}

func TestPGStorePlanLimitForMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectQuery("SELECT plan, max_interviews").
		WithArgs(PlanFree).
		WillReturnRows(sqlmock.NewRows([]string{"plan", "max_interviews", "max_chat_messages", "max_resume_uploads", "is_active", "updated_at"}))

	if _, err := store.PlanLimitFor(context.Background(), PlanFree); !errors.Is(err, ErrPlanNotConfigured) {
		t.Fatalf("err = %v, want ErrPlanNotConfigured", err)
	}
}

func TestPGStoreCountActionsLifetime(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM interview_sessions`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := store.CountActions(context.Background(), "user-1", ActionStartInterview, nil, nil)
	if err != nil {
		t.Fatalf("CountActions: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestPGStoreCountActionsPeriodBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM chat_messages`).
		WithArgs("user-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountActions(context.Background(), "user-1", ActionChatMessage, &from, &to)
	if err != nil {
		t.Fatalf("CountActions: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreUpsertPlanLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("INSERT INTO plan_limits").
		WithArgs(PlanBasic, 20, 1000, 20, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	limit := PlanLimit{Plan: PlanBasic, MaxInterviews: 20, MaxChatMessages: 1000, MaxResumeUploads: 20, IsActive: true}
	if err := store.UpsertPlanLimit(context.Background(), limit); err != nil {
		t.Fatalf("UpsertPlanLimit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
