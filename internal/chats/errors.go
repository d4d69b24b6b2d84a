package chats

import "errors"

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrEmptyPrompt      = errors.New("message cannot be empty")
	ErrUnsupportedModel = errors.New("unsupported model")
)
