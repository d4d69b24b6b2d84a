package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"intervie-backend/internal/ai"
)

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	transcriptionModel = "whisper-large-v3"
)

const questionSystemPrompt = "You are an AI interviewer. Based on the provided resume text, " +
	"generate 15 interview questions: 5 technical, 5 projects, 5 behavioral. " +
	"Return a JSON object with keys technical, projects, behavioral. " +
	"Keep each question concise (max 200 characters)."

func init() {
	ai.RegisterInterviewProvider("groq", func() (ai.InterviewProvider, error) {
		return NewClient(os.Getenv("GROQ_API_KEY"), "")
	})
}

// Client implements ai.InterviewProvider against the Groq OpenAI-compatible API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retryer    ai.Retryer
}

// NewClient constructs a Groq client. An empty model falls back to the
// catalog default.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = ai.DefaultCatalog().DefaultModel("groq")
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryer: ai.Retryer{Provider: "groq", Options: ai.DefaultRetryOptions()},
	}, nil
}

func (c *Client) Name() string { return "groq" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

var questionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "technical": {"type": "array", "items": {"type": "string"}},
    "projects": {"type": "array", "items": {"type": "string"}},
    "behavioral": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["technical", "projects", "behavioral"]
}`)

// GenerateQuestions asks for 15 questions across the three categories and
// flattens them technical first, then projects, then behavioral.
func (c *Client) GenerateQuestions(ctx context.Context, resumeText string) ([]ai.GeneratedQuestion, error) {
	var questions []ai.GeneratedQuestion
	err := c.retryer.Do(ctx, "generateQuestions", func(ctx context.Context) error {
		content, err := c.chatOnce(ctx, chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: questionSystemPrompt},
				{Role: "user", Content: resumeText},
			},
			ResponseFormat: &responseFormat{
				Type:       "json_schema",
				JSONSchema: &jsonSchema{Name: "interview_questions", Schema: questionSchema},
			},
		})
		if err != nil {
			return err
		}

		var parsed struct {
			Technical  []string `json:"technical"`
			Projects   []string `json:"projects"`
			Behavioral []string `json:"behavioral"`
		}
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return fmt.Errorf("groq question response parse: %w", err)
		}

		questions = questions[:0]
		appendCategory(&questions, parsed.Technical, ai.CategoryTechnical)
		appendCategory(&questions, parsed.Projects, ai.CategoryProjects)
		appendCategory(&questions, parsed.Behavioral, ai.CategoryBehavioral)
		if len(questions) == 0 {
			return ai.ErrNoQuestions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func appendCategory(dst *[]ai.GeneratedQuestion, texts []string, category string) {
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		*dst = append(*dst, ai.GeneratedQuestion{
			Text:     text,
			Category: category,
			Order:    len(*dst),
		})
	}
}

// GradeAnswer scores one answer on [0, maxScore]. A response that cannot
// be parsed degrades to a zero score with a fixed feedback line rather
// than failing the request.
func (c *Client) GradeAnswer(ctx context.Context, question, answer string, maxScore int) (ai.Grade, error) {
	prompt := fmt.Sprintf("You are an expert interviewer. Grade the candidate's answer on a scale of 0 to %d.\n"+
		"Question: %s\nAnswer: %s\n"+
		"Return strict JSON with keys: score (number), feedback (string).", maxScore, question, answer)

	grade := ai.Grade{Score: 0, Feedback: "Auto-grading failed."}
	err := c.retryer.Do(ctx, "gradeAnswer", func(ctx context.Context) error {
		content, err := c.chatOnce(ctx, chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: "You are a strict grader returning only JSON."},
				{Role: "user", Content: prompt},
			},
		})
		if err != nil {
			return err
		}

		var parsed struct {
			Score    *float64 `json:"score"`
			Feedback string   `json:"feedback"`
		}
		if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
			// Malformed grading output is not retried as a failure;
			// the defaults stand.
			return nil
		}
		if parsed.Feedback != "" {
			grade.Feedback = parsed.Feedback
		}
		if parsed.Score != nil {
			grade.Score = clamp(int(*parsed.Score), 0, maxScore)
		}
		return nil
	})
	if err != nil {
		return ai.Grade{}, err
	}
	return grade, nil
}

// TranscribeAudio sends the recording to the Whisper transcription endpoint.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeHint string) (string, error) {
	var text string
	err := c.retryer.Do(ctx, "transcribeAudio", func(ctx context.Context) error {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", fileNameForMime(mimeHint))
		if err != nil {
			return err
		}
		if _, err := part.Write(audio); err != nil {
			return err
		}
		if err := writer.WriteField("model", transcriptionModel); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("groq transcription status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("groq transcription parse: %w", err)
		}
		text = parsed.Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) chatOnce(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("groq response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("groq error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("groq response empty content")
	}
	return content, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fileNameForMime(mimeHint string) string {
	switch {
	case strings.Contains(mimeHint, "wav"):
		return "audio.wav"
	case strings.Contains(mimeHint, "mp3"), strings.Contains(mimeHint, "mpeg"):
		return "audio.mp3"
	case strings.Contains(mimeHint, "ogg"):
		return "audio.ogg"
	default:
		return "audio.webm"
	}
}
