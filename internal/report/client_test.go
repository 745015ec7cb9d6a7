package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chatServer fails the first failures requests with status, then answers
// with content.
func chatServer(t *testing.T, failures int32, status int, content string) (*httptest.Server, *atomic.Int32, *openai.ChatCompletionRequest) {
	t.Helper()
	var calls atomic.Int32
	var last openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		n := calls.Add(1)
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"try later","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "grok-3-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &last
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(Options{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "test-key",
		Model:       "grok-3-mini",
		Timeout:     5 * time.Second,
		Temperature: 0.1,
	}, NewStats(time.Hour), quietLogger())
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestGenerate_SendsPromptAndReturnsReport(t *testing.T) {
	srv, calls, last := chatServer(t, 0, 0, "  # Summary\n\nAll good.  ")
	c := newTestClient(srv)

	got, err := c.Generate(context.Background(), "DOCUMENT 1: a.pdf\ncontract text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Summary\n\nAll good." {
		t.Errorf("unexpected report %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
	if last.Model != "grok-3-mini" || last.MaxTokens != 4000 {
		t.Errorf("unexpected request model=%q max_tokens=%d", last.Model, last.MaxTokens)
	}
	if len(last.Messages) != 2 || last.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system and user messages, got %+v", last.Messages)
	}
	if !strings.Contains(last.Messages[1].Content, "contract text") {
		t.Errorf("expected user prompt to carry the document text")
	}
	if snap := c.Stats().Snapshot(); snap.Count != 1 {
		t.Errorf("expected one recorded sample, got %d", snap.Count)
	}
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	srv, calls, _ := chatServer(t, 2, http.StatusServiceUnavailable, "report")
	c := newTestClient(srv)

	got, err := c.Generate(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "report" || calls.Load() != 3 {
		t.Errorf("expected success on third call, got %q after %d calls", got, calls.Load())
	}
	snap := c.Stats().Snapshot()
	if snap.Failures != 2 || snap.Count != 1 {
		t.Errorf("expected 2 failures and 1 success, got %+v", snap)
	}
}

func TestGenerate_GivesUpAfterMaxRetries(t *testing.T) {
	srv, calls, _ := chatServer(t, 10, http.StatusTooManyRequests, "never")
	c := newTestClient(srv)

	_, err := c.Generate(context.Background(), "text")
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
	if calls.Load() != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, calls.Load())
	}
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	srv, calls, _ := chatServer(t, 10, http.StatusUnauthorized, "never")
	c := newTestClient(srv)

	_, err := c.Generate(context.Background(), "text")
	if err == nil || IsRetryable(err) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

type emptyChat struct{}

func (emptyChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c := NewClientWithChat(emptyChat{}, Options{Model: "m"}, nil, quietLogger())
	if _, err := c.Generate(context.Background(), "text"); !errors.Is(err, ErrEmptyReport) {
		t.Errorf("expected ErrEmptyReport, got %v", err)
	}
}
