package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const sessionColumns = `id, user_id, title, temperature, max_tokens, model, is_active, created_at, updated_at`

func (r *PGRepo) CreateSession(ctx context.Context, session Session) error {
	const query = `
INSERT INTO chat_sessions (id, user_id, title, temperature, max_tokens, model, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		session.ID, session.UserID, nullString(session.Title),
		session.Temperature, session.MaxTokens, session.Model, session.CreatedAt)
	return err
}

func (r *PGRepo) GetSession(ctx context.Context, sessionID, userID string) (Session, error) {
	query := `
SELECT ` + sessionColumns + `
FROM chat_sessions
WHERE id = $1 AND user_id = $2 AND is_active = TRUE`

	row := r.DB.QueryRowContext(ctx, query, sessionID, userID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return session, nil
}

func (r *PGRepo) ListSessions(ctx context.Context, userID string) ([]SessionWithCount, error) {
	query := `
SELECT ` + sessionColumns + `,
       (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = chat_sessions.id) AS message_count
FROM chat_sessions
WHERE user_id = $1 AND is_active = TRUE
ORDER BY updated_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionWithCount
	for rows.Next() {
		var (
			s     SessionWithCount
			title sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &title, &s.Temperature, &s.MaxTokens,
			&s.Model, &s.IsActive, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		s.Title = title.String
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PGRepo) UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) (Session, error) {
	sets := []string{"updated_at = now()"}
	args := []any{sessionID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Temperature != nil {
		add("temperature", *update.Temperature)
	}
	if update.MaxTokens != nil {
		add("max_tokens", *update.MaxTokens)
	}
	if update.Model != nil {
		add("model", *update.Model)
	}

	query := "UPDATE chat_sessions SET " + joinSets(sets) + `
WHERE id = $1
RETURNING ` + sessionColumns

	row := r.DB.QueryRowContext(ctx, query, args...)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return session, nil
}

func (r *PGRepo) DeactivateSession(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE chat_sessions SET is_active = FALSE, updated_at = now() WHERE id = $1`, sessionID)
	return err
}

func (r *PGRepo) TouchSession(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, sessionID)
	return err
}

func (r *PGRepo) SetTitle(ctx context.Context, sessionID, title string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE chat_sessions SET title = $2, updated_at = now() WHERE id = $1`, sessionID, title)
	return err
}

func (r *PGRepo) AddMessage(ctx context.Context, message Message) error {
	const query = `
INSERT INTO chat_messages (id, session_id, role, content, tokens, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	var tokens any
	if message.Tokens != nil {
		tokens = *message.Tokens
	}
	_, err := r.DB.ExecContext(ctx, query,
		message.ID, message.SessionID, message.Role, message.Content, tokens, message.CreatedAt)
	return err
}

func (r *PGRepo) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	const query = `
SELECT id, session_id, role, content, tokens, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PGRepo) RecentMessages(ctx context.Context, sessionID string, n int) ([]Message, error) {
	// Newest n rows, re-sorted ascending for the provider.
	const query = `
SELECT id, session_id, role, content, tokens, created_at
FROM (
	SELECT id, session_id, role, content, tokens, created_at
	FROM chat_messages
	WHERE session_id = $1
	ORDER BY created_at DESC
	LIMIT $2
) recent
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, sessionID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PGRepo) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = $1`, sessionID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		session Session
		title   sql.NullString
	)
	err := row.Scan(&session.ID, &session.UserID, &title, &session.Temperature,
		&session.MaxTokens, &session.Model, &session.IsActive, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	session.Title = title.String
	return session, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var (
			m      Message
			tokens sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &tokens, &m.CreatedAt); err != nil {
			return nil, err
		}
		if tokens.Valid {
			v := int(tokens.Int64)
			m.Tokens = &v
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
