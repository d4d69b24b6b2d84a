package chats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var chatSessionColumns = []string{
	"id", "user_id", "title", "temperature", "max_tokens", "model", "is_active", "created_at", "updated_at",
}

func TestPGRepoGetSessionFiltersInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM chat_sessions").
		WithArgs("s1", "u1").
		WillReturnRows(sqlmock.NewRows(chatSessionColumns))

	if _, err := repo.GetSession(context.Background(), "s1", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListSessionsIncludesCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	columns := append(append([]string{}, chatSessionColumns...), "message_count")

	mock.ExpectQuery("SELECT (.+) FROM chat_sessions").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("s1", "u1", "First chat", 0.7, 4096, "gemini-2.0-flash-exp", true, now, now, 6).
			AddRow("s2", "u1", nil, 0.5, 2048, "gemini-1.5-pro", true, now, now, 0))

	sessions, err := repo.ListSessions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	if sessions[0].MessageCount != 6 {
		t.Errorf("MessageCount = %d, want 6", sessions[0].MessageCount)
	}
	if sessions[1].Title != "" {
		t.Errorf("Title = %q, want empty for NULL", sessions[1].Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoRecentMessagesAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	columns := []string{"id", "session_id", "role", "content", "tokens", "created_at"}

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("s1", 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m1", "s1", RoleUser, "hi", nil, now.Add(-time.Minute)).
			AddRow("m2", "s1", RoleAssistant, "hello", 12, now))

	messages, err := repo.RecentMessages(context.Background(), "s1", 20)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Tokens != nil {
		t.Errorf("Tokens = %v, want nil for NULL", messages[0].Tokens)
	}
	if messages[1].Tokens == nil || *messages[1].Tokens != 12 {
		t.Errorf("Tokens = %v, want 12", messages[1].Tokens)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSessionPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	title := "Renamed"
	temp := 0.2

	mock.ExpectQuery("UPDATE chat_sessions SET").
		WithArgs("s1", title, temp).
		WillReturnRows(sqlmock.NewRows(chatSessionColumns).
			AddRow("s1", "u1", title, temp, 4096, "gemini-2.0-flash-exp", true, now, now))

	session, err := repo.UpdateSession(context.Background(), "s1", SessionUpdate{Title: &title, Temperature: &temp})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if session.Title != title || session.Temperature != temp {
		t.Errorf("session = %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeactivateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE chat_sessions SET is_active = FALSE").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeactivateSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DeactivateSession: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
