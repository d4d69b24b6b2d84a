package ai

import "fmt"

// InterviewFactory creates a new interview provider instance.
type InterviewFactory func() (InterviewProvider, error)

// ChatFactory creates a new chat provider instance.
type ChatFactory func() (ChatProvider, error)

var (
	interviewProviders = make(map[string]InterviewFactory)
	chatProviders      = make(map[string]ChatFactory)
)

// RegisterInterviewProvider registers an interview provider factory under a name.
func RegisterInterviewProvider(name string, factory InterviewFactory) {
	interviewProviders[name] = factory
}

// RegisterChatProvider registers a chat provider factory under a name.
func RegisterChatProvider(name string, factory ChatFactory) {
	chatProviders[name] = factory
}

// NewInterviewProvider creates an interview provider by registered name.
func NewInterviewProvider(name string) (InterviewProvider, error) {
	factory, exists := interviewProviders[name]
	if !exists {
		return nil, fmt.Errorf("unsupported interview provider: %s", name)
	}
	return factory()
}

// NewChatProvider creates a chat provider by registered name.
func NewChatProvider(name string) (ChatProvider, error) {
	factory, exists := chatProviders[name]
	if !exists {
		return nil, fmt.Errorf("unsupported chat provider: %s", name)
	}
	return factory()
}
