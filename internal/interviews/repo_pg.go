package interviews

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) CreateSessionWithQuestions(ctx context.Context, session Session, questions []Question) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const sessionQuery = `
INSERT INTO interview_sessions (
	id, user_id, resume_text, resume_name, resume_mime, status, question_count, started_at, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, sessionQuery,
		session.ID, session.UserID, nullString(session.ResumeText), nullString(session.ResumeName),
		nullString(session.ResumeMime), session.Status, len(questions), session.StartedAt, session.CreatedAt,
	); err != nil {
		return err
	}

	const questionQuery = `
INSERT INTO interview_questions (id, session_id, category, text, ord, max_score)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, q := range questions {
		if _, err := tx.ExecContext(ctx, questionQuery,
			q.ID, session.ID, q.Category, q.Text, q.Ord, q.MaxScore,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepo) GetSession(ctx context.Context, sessionID, userID string) (Session, error) {
	const query = `
SELECT id, user_id, resume_text, resume_name, resume_mime, status, question_count,
       total_score, max_score, started_at, completed_at, graded_at, created_at
FROM interview_sessions
WHERE id = $1 AND user_id = $2`

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

func (r *PGRepo) ListSessions(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	const query = `
SELECT id, user_id, resume_text, resume_name, resume_mime, status, question_count,
       total_score, max_score, started_at, completed_at, graded_at, created_at
FROM interview_sessions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *PGRepo) CompleteSession(ctx context.Context, sessionID string, totalScore, maxScore int, markGraded bool) error {
	if markGraded {
		const query = `
UPDATE interview_sessions
SET status = $2, completed_at = now(), graded_at = now(), total_score = $3, max_score = $4
WHERE id = $1`
		_, err := r.DB.ExecContext(ctx, query, sessionID, StatusCompleted, totalScore, maxScore)
		return err
	}
	const query = `
UPDATE interview_sessions
SET status = $2, completed_at = now(), total_score = $3, max_score = $4
WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, sessionID, StatusCompleted, totalScore, maxScore)
	return err
}

func (r *PGRepo) ListQuestions(ctx context.Context, sessionID string) ([]Question, error) {
	const query = `
SELECT id, session_id, category, text, ord, max_score
FROM interview_questions
WHERE session_id = $1
ORDER BY ord ASC`

	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.SessionID, &q.Category, &q.Text, &q.Ord, &q.MaxScore); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *PGRepo) GetQuestion(ctx context.Context, questionID, sessionID string) (Question, error) {
	const query = `
SELECT id, session_id, category, text, ord, max_score
FROM interview_questions
WHERE id = $1 AND session_id = $2`

	var q Question
	row := r.DB.QueryRowContext(ctx, query, questionID, sessionID)
	if err := row.Scan(&q.ID, &q.SessionID, &q.Category, &q.Text, &q.Ord, &q.MaxScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (r *PGRepo) UpsertAnswer(ctx context.Context, answer Answer) (Answer, error) {
	const query = `
INSERT INTO interview_answers (
	id, session_id, question_id, user_id, answer_text, source, timed_out, transcription_meta, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (session_id, question_id, user_id) DO UPDATE SET
	answer_text = EXCLUDED.answer_text,
	source = EXCLUDED.source,
	timed_out = EXCLUDED.timed_out,
	transcription_meta = EXCLUDED.transcription_meta,
	score = NULL,
	ai_feedback = NULL,
	graded_at = NULL
RETURNING id, session_id, question_id, user_id, answer_text, source, timed_out,
          score, ai_feedback, graded_at, transcription_meta, created_at`

	var meta any
	if len(answer.TranscriptionMeta) > 0 {
		meta = answer.TranscriptionMeta
	}
	row := r.DB.QueryRowContext(ctx, query,
		answer.ID, answer.SessionID, answer.QuestionID, answer.UserID,
		answer.AnswerText, answer.Source, answer.TimedOut, meta, answer.CreatedAt,
	)
	return scanAnswer(row)
}

func (r *PGRepo) ListAnswers(ctx context.Context, sessionID, userID string) ([]Answer, error) {
	const query = `
SELECT id, session_id, question_id, user_id, answer_text, source, timed_out,
       score, ai_feedback, graded_at, transcription_meta, created_at
FROM interview_answers
WHERE session_id = $1 AND user_id = $2
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func (r *PGRepo) SetGrade(ctx context.Context, answerID string, score int, feedback string) (Answer, error) {
	const query = `
UPDATE interview_answers
SET score = $2, ai_feedback = $3, graded_at = now()
WHERE id = $1
RETURNING id, session_id, question_id, user_id, answer_text, source, timed_out,
          score, ai_feedback, graded_at, transcription_meta, created_at`

	row := r.DB.QueryRowContext(ctx, query, answerID, score, feedback)
	answer, err := scanAnswer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Answer{}, ErrQuestionNotFound
		}
		return Answer{}, err
	}
	return answer, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		session     Session
		resumeText  sql.NullString
		resumeName  sql.NullString
		resumeMime  sql.NullString
		totalScore  sql.NullInt64
		maxScore    sql.NullInt64
		completedAt sql.NullTime
		gradedAt    sql.NullTime
	)
	err := row.Scan(
		&session.ID, &session.UserID, &resumeText, &resumeName, &resumeMime,
		&session.Status, &session.QuestionCount, &totalScore, &maxScore,
		&session.StartedAt, &completedAt, &gradedAt, &session.CreatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	session.ResumeText = resumeText.String
	session.ResumeName = resumeName.String
	session.ResumeMime = resumeMime.String
	if totalScore.Valid {
		v := int(totalScore.Int64)
		session.TotalScore = &v
	}
	if maxScore.Valid {
		v := int(maxScore.Int64)
		session.MaxScore = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	if gradedAt.Valid {
		t := gradedAt.Time
		session.GradedAt = &t
	}
	return session, nil
}

func scanAnswer(row rowScanner) (Answer, error) {
	var (
		answer   Answer
		score    sql.NullInt64
		feedback sql.NullString
		gradedAt sql.NullTime
		meta     []byte
	)
	err := row.Scan(
		&answer.ID, &answer.SessionID, &answer.QuestionID, &answer.UserID,
		&answer.AnswerText, &answer.Source, &answer.TimedOut,
		&score, &feedback, &gradedAt, &meta, &answer.CreatedAt,
	)
	if err != nil {
		return Answer{}, err
	}
	if score.Valid {
		v := int(score.Int64)
		answer.Score = &v
	}
	if feedback.Valid {
		v := feedback.String
		answer.AIFeedback = &v
	}
	if gradedAt.Valid {
		t := gradedAt.Time
		answer.GradedAt = &t
	}
	answer.TranscriptionMeta = meta
	return answer, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
