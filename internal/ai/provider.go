package ai

import (
	"context"
	"errors"
	"fmt"
)

// Question categories produced by generation providers.
const (
	CategoryTechnical  = "TECHNICAL"
	CategoryProjects   = "PROJECTS"
	CategoryBehavioral = "BEHAVIORAL"
)

// GeneratedQuestion is one interview question produced from a resume.
// Order is the 0-based flattening index: all technical questions first,
// then projects, then behavioral.
type GeneratedQuestion struct {
	Text     string
	Category string
	Order    int
}

// Grade is the result of scoring a single answer.
type Grade struct {
	Score    int
	Feedback string
}

// ChatTurn is one prior message in provider role vocabulary
// ("user" or "model").
type ChatTurn struct {
	Role string
	Text string
}

// ChatReply carries the accumulated response text plus the raw streamed
// fragments for clients that render incrementally.
type ChatReply struct {
	Text   string
	Chunks []string
}

// InterviewProvider abstracts question generation, answer grading and
// audio transcription.
type InterviewProvider interface {
	GenerateQuestions(ctx context.Context, resumeText string) ([]GeneratedQuestion, error)
	GradeAnswer(ctx context.Context, question, answer string, maxScore int) (Grade, error)
	TranscribeAudio(ctx context.Context, audio []byte, mimeHint string) (string, error)
	Name() string
}

// ChatProvider abstracts conversational completion with history.
type ChatProvider interface {
	SendMessage(ctx context.Context, history []ChatTurn, prompt, model string) (ChatReply, error)
	Name() string
}

var (
	// ErrNoQuestions is returned when a provider yields zero questions
	// across all categories.
	ErrNoQuestions = errors.New("no questions were generated")
	// ErrEmptyResponse is returned when a stream completes with no text.
	ErrEmptyResponse = errors.New("empty response from AI provider")
)

// ProviderError wraps a provider failure after retry exhaustion.
type ProviderError struct {
	Provider  string
	Operation string
	Attempts  int
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed after %d attempts", e.Operation, e.Attempts)
}

func (e *ProviderError) Unwrap() error { return e.Err }
