package interviews

import "context"

// Repo defines persistence operations for interview sessions, questions
// and answers.
type Repo interface {
	// CreateSessionWithQuestions persists the session and its questions
	// as one unit of work; a partial failure leaves nothing behind.
	CreateSessionWithQuestions(ctx context.Context, session Session, questions []Question) error
	GetSession(ctx context.Context, sessionID, userID string) (Session, error)
	ListSessions(ctx context.Context, userID string, limit, offset int) ([]Session, error)
	// CompleteSession transitions the session to COMPLETED with totals.
	// markGraded additionally stamps gradedAt.
	CompleteSession(ctx context.Context, sessionID string, totalScore, maxScore int, markGraded bool) error

	// ListQuestions returns the session's questions ordered by Ord.
	ListQuestions(ctx context.Context, sessionID string) ([]Question, error)
	GetQuestion(ctx context.Context, questionID, sessionID string) (Question, error)

	// UpsertAnswer inserts or overwrites the single answer row keyed by
	// (SessionID, QuestionID, UserID), clearing score, feedback and
	// gradedAt on overwrite.
	UpsertAnswer(ctx context.Context, answer Answer) (Answer, error)
	ListAnswers(ctx context.Context, sessionID, userID string) ([]Answer, error)
	SetGrade(ctx context.Context, answerID string, score int, feedback string) (Answer, error)
}
