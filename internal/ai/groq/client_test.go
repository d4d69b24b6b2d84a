package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intervie-backend/internal/ai"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "openai/gpt-oss-120b")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseURL = srv.URL
	c.retryer.Options = ai.RetryOptions{MaxRetries: 2, RetryDelay: time.Millisecond, Timeout: time.Second}
	return c
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestGenerateQuestionsFlattensCategories(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization = %q", got)
		}
		chatReply(t, w, `{"technical":["t1","t2"],"projects":["p1"],"behavioral":["b1","b2"]}`)
	}))

	questions, err := c.GenerateQuestions(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("len = %d, want 5", len(questions))
	}

	wantCategories := []string{
		ai.CategoryTechnical, ai.CategoryTechnical,
		ai.CategoryProjects,
		ai.CategoryBehavioral, ai.CategoryBehavioral,
	}
	for i, q := range questions {
		if q.Order != i {
			t.Fatalf("question %d has order %d", i, q.Order)
		}
		if q.Category != wantCategories[i] {
			t.Fatalf("question %d category = %s, want %s", i, q.Category, wantCategories[i])
		}
	}
	if questions[2].Text != "p1" {
		t.Fatalf("projects question text = %q", questions[2].Text)
	}
}

func TestGenerateQuestionsEmptyResult(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"technical":[],"projects":[],"behavioral":[]}`)
	}))

	_, err := c.GenerateQuestions(context.Background(), "resume text")
	if !errors.Is(err, ai.ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
	var provErr *ai.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error %T, want *ai.ProviderError", err)
	}
}

func TestGenerateQuestionsRetriesOnError(t *testing.T) {
	calls := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "overloaded", "type": "server_error"},
			})
			return
		}
		chatReply(t, w, `{"technical":["t1"],"projects":[],"behavioral":[]}`)
	}))

	questions, err := c.GenerateQuestions(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(questions) != 1 {
		t.Fatalf("len = %d, want 1", len(questions))
	}
}

func TestGradeAnswerClampsScore(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantScore    int
		wantFeedback string
	}{
		{name: "in range", content: `{"score": 7, "feedback": "solid"}`, wantScore: 7, wantFeedback: "solid"},
		{name: "above max", content: `{"score": 42, "feedback": "great"}`, wantScore: 10, wantFeedback: "great"},
		{name: "negative", content: `{"score": -3, "feedback": "weak"}`, wantScore: 0, wantFeedback: "weak"},
		{name: "malformed", content: `not json at all`, wantScore: 0, wantFeedback: "Auto-grading failed."},
		{name: "fenced", content: "```json\n{\"score\": 5, \"feedback\": \"ok\"}\n```", wantScore: 5, wantFeedback: "ok"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				chatReply(t, w, tt.content)
			}))

			grade, err := c.GradeAnswer(context.Background(), "q", "a", 10)
			if err != nil {
				t.Fatalf("GradeAnswer: %v", err)
			}
			if grade.Score != tt.wantScore {
				t.Fatalf("Score = %d, want %d", grade.Score, tt.wantScore)
			}
			if grade.Feedback != tt.wantFeedback {
				t.Fatalf("Feedback = %q, want %q", grade.Feedback, tt.wantFeedback)
			}
		})
	}
}

func TestTranscribeAudio(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Fatalf("model = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Fatalf("file part missing: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))

	text, err := c.TranscribeAudio(context.Background(), []byte{0x1a, 0x45}, "audio/webm")
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q", text)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
