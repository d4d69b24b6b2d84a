package interviews

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for tests and local runs.
type MemoryRepo struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	questions map[string][]Question // keyed by session id
	answers   map[string]Answer     // keyed by session|question|user
	now       func() time.Time
}

var _ Repo = (*MemoryRepo)(nil)

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions:  make(map[string]Session),
		questions: make(map[string][]Question),
		answers:   make(map[string]Answer),
		now:       time.Now,
	}
}

func answerKey(sessionID, questionID, userID string) string {
	return sessionID + "|" + questionID + "|" + userID
}

func (r *MemoryRepo) CreateSessionWithQuestions(ctx context.Context, session Session, questions []Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.QuestionCount = len(questions)
	r.sessions[session.ID] = session
	qs := make([]Question, len(questions))
	copy(qs, questions)
	for i := range qs {
		qs[i].SessionID = session.ID
	}
	r.questions[session.ID] = qs
	return nil
}

func (r *MemoryRepo) GetSession(ctx context.Context, sessionID, userID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok || session.UserID != userID {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (r *MemoryRepo) ListSessions(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	if offset >= len(sessions) {
		return nil, nil
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (r *MemoryRepo) CompleteSession(ctx context.Context, sessionID string, totalScore, maxScore int, markGraded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	now := r.now()
	session.Status = StatusCompleted
	session.CompletedAt = &now
	session.TotalScore = &totalScore
	session.MaxScore = &maxScore
	if markGraded {
		session.GradedAt = &now
	}
	r.sessions[sessionID] = session
	return nil
}

func (r *MemoryRepo) ListQuestions(ctx context.Context, sessionID string) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	qs := r.questions[sessionID]
	out := make([]Question, len(qs))
	copy(out, qs)
	// Defensive: order values from generation are not trusted to be
	// contiguous.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ord < out[j].Ord })
	return out, nil
}

func (r *MemoryRepo) GetQuestion(ctx context.Context, questionID, sessionID string) (Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, q := range r.questions[sessionID] {
		if q.ID == questionID {
			return q, nil
		}
	}
	return Question{}, ErrQuestionNotFound
}

func (r *MemoryRepo) UpsertAnswer(ctx context.Context, answer Answer) (Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := answerKey(answer.SessionID, answer.QuestionID, answer.UserID)
	if existing, ok := r.answers[key]; ok {
		existing.AnswerText = answer.AnswerText
		existing.Source = answer.Source
		existing.TimedOut = answer.TimedOut
		existing.TranscriptionMeta = answer.TranscriptionMeta
		existing.Score = nil
		existing.AIFeedback = nil
		existing.GradedAt = nil
		r.answers[key] = existing
		return existing, nil
	}
	r.answers[key] = answer
	return answer, nil
}

func (r *MemoryRepo) ListAnswers(ctx context.Context, sessionID, userID string) ([]Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var answers []Answer
	for _, answer := range r.answers {
		if answer.SessionID == sessionID && answer.UserID == userID {
			answers = append(answers, answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	return answers, nil
}

func (r *MemoryRepo) SetGrade(ctx context.Context, answerID string, score int, feedback string) (Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, answer := range r.answers {
		if answer.ID == answerID {
			now := r.now()
			answer.Score = &score
			answer.AIFeedback = &feedback
			answer.GradedAt = &now
			r.answers[key] = answer
			return answer, nil
		}
	}
	return Answer{}, ErrQuestionNotFound
}
