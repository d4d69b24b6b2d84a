package interviews

import "time"

// Session status values. COMPLETED is terminal.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Answer sources.
const (
	SourceText  = "TEXT"
	SourceAudio = "AUDIO"
)

// DefaultMaxScore is the per-question grading ceiling.
const DefaultMaxScore = 10

// Session is one end-to-end mock-interview attempt tied to one resume.
type Session struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	ResumeText    string     `json:"-"`
	ResumeName    string     `json:"resumeName,omitempty"`
	ResumeMime    string     `json:"-"`
	Status        string     `json:"status"`
	QuestionCount int        `json:"questionCount"`
	TotalScore    *int       `json:"totalScore,omitempty"`
	MaxScore      *int       `json:"maxScore,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	GradedAt      *time.Time `json:"gradedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Question is one generated interview question. Ord is the 0-based
// position within the session's flattened question list.
type Question struct {
	ID        string `json:"questionId"`
	SessionID string `json:"-"`
	Category  string `json:"category"`
	Text      string `json:"text"`
	Ord       int    `json:"order"`
	MaxScore  int    `json:"maxScore"`
}

// Answer is one user's answer to one question. At most one row exists
// per (SessionID, QuestionID, UserID); resubmission overwrites and
// clears any prior grade. TimedOut marks a question skipped on the
// client's timer; such rows count toward progression but are excluded
// from grading and from "answered" status views.
type Answer struct {
	ID                string     `json:"answerId"`
	SessionID         string     `json:"-"`
	QuestionID        string     `json:"questionId"`
	UserID            string     `json:"-"`
	AnswerText        string     `json:"answerText"`
	Source            string     `json:"source"`
	TimedOut          bool       `json:"timedOut"`
	Score             *int       `json:"score,omitempty"`
	AIFeedback        *string    `json:"aiFeedback,omitempty"`
	GradedAt          *time.Time `json:"gradedAt,omitempty"`
	TranscriptionMeta []byte     `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}
