package interviews

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"intervie-backend/internal/ai"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/realtime"
	"intervie-backend/internal/shared/metrics"
	"intervie-backend/internal/shared/storage/object"
	"intervie-backend/internal/shared/telemetry"
)

// TextExtractor turns an uploaded resume into plain text.
type TextExtractor func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)

// Service drives the interview session state machine. Quota checks run
// before any provider call or persistence; provider failures surface
// after the gateway's internal retries, except grading, which degrades
// per answer.
type Service struct {
	Repo     Repo
	Provider ai.InterviewProvider
	Quota    *plans.Service
	Notifier realtime.Notifier
	Extract  TextExtractor
	Limiter  *ai.RateLimiter
	// Artifacts keeps raw uploads around for audit; saving is best
	// effort and never fails the main operation.
	Artifacts object.ObjectStore
	now       func() time.Time
}

// NewService constructs a Service. A nil notifier becomes a no-op.
func NewService(repo Repo, provider ai.InterviewProvider, quota *plans.Service, notifier realtime.Notifier, extract TextExtractor) *Service {
	if notifier == nil {
		notifier = realtime.NopNotifier{}
	}
	return &Service{
		Repo:     repo,
		Provider: provider,
		Quota:    quota,
		Notifier: notifier,
		Extract:  extract,
		now:      time.Now,
	}
}

// StartResult is the outcome of starting an interview.
type StartResult struct {
	SessionID      string `json:"sessionId"`
	TotalQuestions int    `json:"totalQuestions"`
}

// NextQuestionResult is the next unanswered question, nil-valued when the
// interview is complete.
type NextQuestionResult struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Order      int    `json:"order"`
	Remaining  int    `json:"remaining"`
}

// QuestionStatus is one question with its answered flag. Timed-out
// answers do not count as answered here.
type QuestionStatus struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Order      int    `json:"order"`
	Answered   bool   `json:"answered"`
}

// GradeResult is one graded answer.
type GradeResult struct {
	AnswerID   string `json:"answerId"`
	QuestionID string `json:"questionId"`
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
}

// Summary is the session-level score projection.
type Summary struct {
	SessionID      string `json:"sessionId"`
	Status         string `json:"status"`
	TotalScore     int    `json:"totalScore"`
	MaxScore       int    `json:"maxScore"`
	Answered       int    `json:"answered"`
	TotalQuestions int    `json:"totalQuestions"`
}

// StartFromResume runs the full start pipeline: quota, extraction,
// generation, atomic persistence, notification. Nothing persists when
// generation fails.
func (s *Service) StartFromResume(ctx context.Context, userID string, file []byte, fileName, mimeType string) (StartResult, error) {
	if err := s.Quota.Enforce(ctx, userID, plans.ActionStartInterview); err != nil {
		return StartResult{}, err
	}
	if err := s.Quota.Enforce(ctx, userID, plans.ActionResumeUpload); err != nil {
		return StartResult{}, err
	}
	if err := s.allow(userID, "generateQuestions"); err != nil {
		return StartResult{}, err
	}

	resumeText, err := s.Extract(ctx, file, mimeType, fileName)
	if err != nil {
		return StartResult{}, err
	}

	generated, err := s.Provider.GenerateQuestions(ctx, resumeText)
	if err != nil {
		return StartResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(generated) == 0 {
		return StartResult{}, ErrGenerationFailed
	}

	now := s.now().UTC()
	session := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ResumeText: resumeText,
		ResumeName: fileName,
		ResumeMime: mimeType,
		Status:     StatusInProgress,
		StartedAt:  now,
		CreatedAt:  now,
	}
	questions := make([]Question, len(generated))
	for i, q := range generated {
		questions[i] = Question{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Category:  q.Category,
			Text:      q.Text,
			Ord:       q.Order,
			MaxScore:  DefaultMaxScore,
		}
	}

	if err := s.Repo.CreateSessionWithQuestions(ctx, session, questions); err != nil {
		return StartResult{}, err
	}
	s.saveArtifact(ctx, userID, fileName, file)

	metrics.IncInterviewStarted()
	result := StartResult{SessionID: session.ID, TotalQuestions: len(questions)}
	telemetry.Info("interview.started", map[string]any{
		"session_id": session.ID,
		"user_id":    userID,
		"questions":  len(questions),
	})
	s.Notifier.Publish(session.ID, "interview:started", result)
	return result, nil
}

// PreviewQuestions generates questions from a resume without creating a
// session.
func (s *Service) PreviewQuestions(ctx context.Context, userID string, file []byte, fileName, mimeType string) ([]ai.GeneratedQuestion, error) {
	if err := s.allow(userID, "generateQuestions"); err != nil {
		return nil, err
	}

	resumeText, err := s.Extract(ctx, file, mimeType, fileName)
	if err != nil {
		return nil, err
	}
	generated, err := s.Provider.GenerateQuestions(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(generated) == 0 {
		return nil, ErrGenerationFailed
	}
	return generated, nil
}

// NextQuestion returns the lowest-order unanswered question, or nil once
// every question has an answer row. Crossing that threshold is the one
// answer-coverage-driven transition into COMPLETED.
func (s *Service) NextQuestion(ctx context.Context, sessionID, userID string) (*NextQuestionResult, error) {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusCompleted {
		return nil, nil
	}

	questions, err := s.Repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Repo.ListAnswers(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = true
	}

	var next *Question
	for i := range questions {
		if !answered[questions[i].ID] {
			next = &questions[i]
			break
		}
	}

	if next == nil {
		totalScore, maxScore := tally(answers, questions)
		if err := s.Repo.CompleteSession(ctx, sessionID, totalScore, maxScore, false); err != nil {
			return nil, err
		}
		metrics.IncInterviewCompleted()
		return nil, nil
	}

	result := &NextQuestionResult{
		QuestionID: next.ID,
		Text:       next.Text,
		Category:   next.Category,
		Order:      next.Ord,
		Remaining:  len(questions) - len(answers),
	}
	s.Notifier.Publish(sessionID, "question:next", result)
	return result, nil
}

// SubmitAnswer upserts a text answer for one question. Resubmission
// clears any prior grade.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, userID, questionID, text string) (Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Answer{}, ErrEmptyAnswer
	}

	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Answer{}, err
	}
	if session.Status == StatusCompleted {
		return Answer{}, ErrAlreadyCompleted
	}

	question, err := s.Repo.GetQuestion(ctx, questionID, sessionID)
	if err != nil {
		return Answer{}, err
	}

	answer, err := s.storeAnswer(ctx, sessionID, userID, question.ID, text, SourceText, false, nil)
	if err != nil {
		return Answer{}, err
	}
	metrics.IncAnswerSubmitted()
	s.Notifier.Publish(sessionID, "answer:submitted", map[string]any{
		"questionId": question.ID,
		"answerId":   answer.ID,
	})
	return answer, nil
}

// TranscribeAndStore transcribes an audio answer and upserts it with
// source AUDIO. Empty transcription fails without storing anything.
func (s *Service) TranscribeAndStore(ctx context.Context, sessionID, userID, questionID string, audio []byte, mimeHint string) (Answer, error) {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Answer{}, err
	}
	if session.Status == StatusCompleted {
		return Answer{}, ErrAlreadyCompleted
	}

	question, err := s.Repo.GetQuestion(ctx, questionID, sessionID)
	if err != nil {
		return Answer{}, err
	}

	if err := s.allow(userID, "transcribeAudio"); err != nil {
		return Answer{}, err
	}

	text, err := s.Provider.TranscribeAudio(ctx, audio, mimeHint)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Answer{}, ErrTranscriptionFailed
	}

	s.saveArtifact(ctx, userID, "answer-"+question.ID+audioExt(mimeHint), audio)

	meta := []byte(fmt.Sprintf(`{"mimeType":%q,"bytes":%d}`, mimeHint, len(audio)))
	answer, err := s.storeAnswer(ctx, sessionID, userID, question.ID, text, SourceAudio, false, meta)
	if err != nil {
		return Answer{}, err
	}
	metrics.IncAnswerSubmitted()
	s.Notifier.Publish(sessionID, "answer:submitted", map[string]any{
		"questionId": question.ID,
		"answerId":   answer.ID,
	})
	return answer, nil
}

// TimeoutAnswer records that the client's timer expired on a question.
// The row counts toward progression but is skipped by grading and by
// answered-status views.
func (s *Service) TimeoutAnswer(ctx context.Context, sessionID, userID, questionID string) error {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}

	question, err := s.Repo.GetQuestion(ctx, questionID, sessionID)
	if err != nil {
		return err
	}

	if _, err := s.storeAnswer(ctx, sessionID, userID, question.ID, "", SourceText, true, nil); err != nil {
		return err
	}
	metrics.IncAnswerTimedOut()
	s.Notifier.Publish(sessionID, "answer:submitted", map[string]any{
		"questionId": question.ID,
		"timedOut":   true,
	})
	return nil
}

// Grade scores every ungraded non-timed-out answer, one provider call at
// a time. A malformed or failed grading response degrades that answer to
// the default instead of aborting the batch. Once the session-level
// gradedAt is set the call is a read-only replay of stored results.
func (s *Service) Grade(ctx context.Context, sessionID, userID string) ([]GradeResult, error) {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.Repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Repo.ListAnswers(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	questionByID := make(map[string]Question, len(questions))
	for _, q := range questions {
		questionByID[q.ID] = q
	}

	if session.GradedAt != nil {
		return storedResults(answers), nil
	}

	if err := s.allow(userID, "gradeAnswer"); err != nil {
		return nil, err
	}

	gradeStart := s.now()
	var results []GradeResult
	for _, answer := range answers {
		if answer.TimedOut {
			continue
		}
		question, ok := questionByID[answer.QuestionID]
		if !ok {
			continue
		}
		if answer.GradedAt != nil {
			results = append(results, GradeResult{
				AnswerID:   answer.ID,
				QuestionID: answer.QuestionID,
				Score:      derefInt(answer.Score),
				Feedback:   derefString(answer.AIFeedback),
			})
			continue
		}

		callStart := s.now()
		grade, err := s.Provider.GradeAnswer(ctx, question.Text, answer.AnswerText, question.MaxScore)
		metrics.ObserveProviderDurationMs(float64(s.now().Sub(callStart).Milliseconds()))
		if err != nil {
			metrics.IncProviderError()
			telemetry.Warn("interview.grade.degraded", map[string]any{
				"session_id": sessionID,
				"answer_id":  answer.ID,
				"error":      err.Error(),
			})
			grade = ai.Grade{Score: 0, Feedback: "Auto-grading failed."}
		}

		updated, err := s.Repo.SetGrade(ctx, answer.ID, grade.Score, grade.Feedback)
		if err != nil {
			return nil, err
		}
		results = append(results, GradeResult{
			AnswerID:   updated.ID,
			QuestionID: updated.QuestionID,
			Score:      derefInt(updated.Score),
			Feedback:   derefString(updated.AIFeedback),
		})
	}

	if len(answers) >= len(questions) && len(questions) > 0 {
		refreshed, err := s.Repo.ListAnswers(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		totalScore, maxScore := tally(refreshed, questions)
		if err := s.Repo.CompleteSession(ctx, sessionID, totalScore, maxScore, true); err != nil {
			return nil, err
		}
		metrics.IncInterviewCompleted()
	}

	metrics.IncInterviewGraded()
	metrics.ObserveGradingDurationMs(float64(s.now().Sub(gradeStart).Milliseconds()))
	s.Notifier.Publish(sessionID, "interview:graded", map[string]any{"results": results})
	return results, nil
}

// QuestionsWithStatus lists the session's questions with their answered
// flags.
func (s *Service) QuestionsWithStatus(ctx context.Context, sessionID, userID string) ([]QuestionStatus, error) {
	if _, err := s.Repo.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	questions, err := s.Repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Repo.ListAnswers(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		if !a.TimedOut {
			answered[a.QuestionID] = true
		}
	}

	items := make([]QuestionStatus, len(questions))
	for i, q := range questions {
		items[i] = QuestionStatus{
			QuestionID: q.ID,
			Text:       q.Text,
			Category:   q.Category,
			Order:      q.Ord,
			Answered:   answered[q.ID],
		}
	}
	return items, nil
}

// GetSummary returns the score projection, preferring persisted totals
// over live recomputation.
func (s *Service) GetSummary(ctx context.Context, sessionID, userID string) (Summary, error) {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Summary{}, err
	}

	questions, err := s.Repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	answers, err := s.Repo.ListAnswers(ctx, sessionID, userID)
	if err != nil {
		return Summary{}, err
	}

	totalScore, maxScore := tally(answers, questions)
	if session.TotalScore != nil {
		totalScore = *session.TotalScore
	}
	if session.MaxScore != nil {
		maxScore = *session.MaxScore
	}

	return Summary{
		SessionID:      session.ID,
		Status:         session.Status,
		TotalScore:     totalScore,
		MaxScore:       maxScore,
		Answered:       len(answers),
		TotalQuestions: len(questions),
	}, nil
}

// ListSessions pages the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListSessions(ctx, userID, limit, offset)
}

func (s *Service) storeAnswer(ctx context.Context, sessionID, userID, questionID, text, source string, timedOut bool, meta []byte) (Answer, error) {
	return s.Repo.UpsertAnswer(ctx, Answer{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		QuestionID:        questionID,
		UserID:            userID,
		AnswerText:        text,
		Source:            source,
		TimedOut:          timedOut,
		TranscriptionMeta: meta,
		CreatedAt:         s.now().UTC(),
	})
}

func (s *Service) saveArtifact(ctx context.Context, userID, fileName string, data []byte) {
	if s.Artifacts == nil {
		return
	}
	if _, _, _, err := s.Artifacts.Save(ctx, userID, fileName, bytes.NewReader(data)); err != nil {
		telemetry.Warn("interview.artifact.save_failed", map[string]any{
			"user_id": userID,
			"file":    fileName,
			"error":   err.Error(),
		})
	}
}

func audioExt(mimeHint string) string {
	switch {
	case strings.Contains(mimeHint, "wav"):
		return ".wav"
	case strings.Contains(mimeHint, "mp3"), strings.Contains(mimeHint, "mpeg"):
		return ".mp3"
	case strings.Contains(mimeHint, "ogg"):
		return ".ogg"
	default:
		return ".webm"
	}
}

func (s *Service) allow(userID, operation string) error {
	res := s.Limiter.Allow(userID, operation)
	if !res.Allowed {
		return &ai.RateLimitError{Operation: operation, RetryAfter: res.RetryAfter}
	}
	return nil
}

func tally(answers []Answer, questions []Question) (totalScore, maxScore int) {
	for _, a := range answers {
		totalScore += derefInt(a.Score)
	}
	for _, q := range questions {
		maxScore += q.MaxScore
	}
	return totalScore, maxScore
}

func storedResults(answers []Answer) []GradeResult {
	var results []GradeResult
	for _, a := range answers {
		if a.TimedOut || a.GradedAt == nil {
			continue
		}
		results = append(results, GradeResult{
			AnswerID:   a.ID,
			QuestionID: a.QuestionID,
			Score:      derefInt(a.Score),
			Feedback:   derefString(a.AIFeedback),
		})
	}
	return results
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
