package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"intervie-backend/internal/ai"
)

const systemPrompt = `You are InterVie, a professional AI career and job interview assistant. Your purpose is to help users succeed in job interviews, improve their project skills, and enhance employability.
Follow these guidelines strictly:

1. **Interview Preparation**:
   - Provide common and role-specific interview questions.
   - Give clear, concise, and structured answers.
   - Include tips on how to answer effectively, including phrasing, tone, and examples.

2. **Project Guidance**:
   - Suggest project ideas relevant to the user's field or role.
   - Explain step-by-step how to approach the project.
   - Recommend tools, libraries, or frameworks when necessary.

3. **Feedback**:
   - Give constructive feedback on the user's answers or ideas.
   - Highlight strengths and areas for improvement.

4. **Professionalism**:
   - Maintain a helpful, polite, and encouraging tone.
   - Adapt your responses to the user's skill level.
   - Avoid giving irrelevant or generic advice.

5. **Extra Guidance**:
   - Provide resources (articles, tutorials, sample projects) when relevant.
   - Offer soft skills and behavioral tips for interviews.
   - Suggest ways to demonstrate experience and impact effectively.

Always act as a knowledgeable career coach, tailor advice to the user's background and goals, and make answers actionable and easy to understand.`

func init() {
	ai.RegisterChatProvider("gemini", func() (ai.ChatProvider, error) {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		return NewClient(context.Background(), apiKey)
	})
}

// Client implements ai.ChatProvider on the Gemini API.
type Client struct {
	client  *genai.Client
	catalog *ai.Catalog
	retryer ai.Retryer
}

// NewClient constructs a Gemini chat client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:  client,
		catalog: ai.DefaultCatalog(),
		retryer: ai.Retryer{Provider: "gemini", Options: ai.DefaultRetryOptions()},
	}, nil
}

func (c *Client) Name() string { return "gemini" }

// generateConfig maps catalog settings onto the request config.
func generateConfig(cfg ai.ModelConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: genai.Ptr(int64(cfg.MaxTokens)),
	}
}

// SendMessage streams a completion for prompt with the prior history. The
// coaching instructions ride along as a trailing model turn so every
// request carries them regardless of history length.
func (c *Client) SendMessage(ctx context.Context, history []ai.ChatTurn, prompt, model string) (ai.ChatReply, error) {
	if model == "" {
		model = c.catalog.DefaultModel("gemini")
	}
	if !c.catalog.ValidateModel("gemini", model) {
		return ai.ChatReply{}, fmt.Errorf("unsupported model: %s", model)
	}
	cfg, _ := c.catalog.Model("gemini", model)

	contents := make([]*genai.Content, 0, len(history)+2)
	for _, turn := range history {
		contents = append(contents, &genai.Content{
			Role:  turn.Role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{{Text: systemPrompt}},
	})
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: strings.TrimSpace(prompt)}},
	})

	genCfg := generateConfig(cfg)

	var reply ai.ChatReply
	err := c.retryer.Do(ctx, "sendMessage", func(ctx context.Context) error {
		var full strings.Builder
		var chunks []string

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, genCfg) {
			if err != nil {
				return err
			}
			text, err := resp.Text()
			if err != nil {
				continue
			}
			if text == "" {
				continue
			}
			full.WriteString(text)
			chunks = append(chunks, text)
		}

		if strings.TrimSpace(full.String()) == "" {
			return ai.ErrEmptyResponse
		}
		reply = ai.ChatReply{Text: full.String(), Chunks: chunks}
		return nil
	})
	if err != nil {
		return ai.ChatReply{}, err
	}
	return reply, nil
}
