package interviews

import "errors"

var (
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadyCompleted = errors.New("interview already completed")
	// ErrGenerationFailed covers zero questions from the provider; no
	// session or questions are persisted when it fires.
	ErrGenerationFailed = errors.New("failed to generate questions")
	// ErrTranscriptionFailed fires when transcription yields empty text.
	ErrTranscriptionFailed = errors.New("transcription produced no text")
	ErrEmptyAnswer         = errors.New("answer text is required")
)
