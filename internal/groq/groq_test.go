package groq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	t.Parallel()

	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer gsk_test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello!"}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("gsk_test").WithBaseURL(server.URL)
	resp, err := client.ChatCompletion(context.Background(), ChatRequest{
		Model:       "test-model",
		Messages:    []Message{TextMessage("user", "hi")},
		Temperature: 0.7,
		MaxTokens:   1024,
		TopP:        0.9,
	})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}

	if resp.Content() != "Hello!" {
		t.Errorf("Content() = %q, want Hello!", resp.Content())
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if got.Model != "test-model" {
		t.Errorf("request model = %q", got.Model)
	}
	if got.Temperature != 0.7 || got.MaxTokens != 1024 || got.TopP != 0.9 {
		t.Errorf("request params = %v/%v/%v", got.Temperature, got.MaxTokens, got.TopP)
	}
}

func TestChatCompletionPartsEncoding(t *testing.T) {
	t.Parallel()

	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "a cat"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("gsk_test").WithBaseURL(server.URL)
	parts := []ContentPart{
		TextPart("What is in this image?"),
		ImagePart("data:image/jpeg;base64,aGk="),
	}
	if _, err := client.ChatCompletion(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{PartsMessage("user", parts)},
	}); err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}

	messages := raw["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(content))
	}
	text := content[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "What is in this image?" {
		t.Errorf("text part = %v", text)
	}
	image := content[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("image part type = %v", image["type"])
	}
	url := image["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("image url = %q", url)
	}
	if _, hasText := image["text"]; hasText {
		t.Error("image part should omit empty text field")
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient("gsk_test").WithBaseURL(server.URL)
	_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestChatCompletionErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"auth", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key","code":"invalid_api_key"}}`, ErrAuthFailed},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","code":"rate_limit_exceeded"}}`, ErrRateLimited},
		{"auth no body", http.StatusUnauthorized, `nope`, ErrAuthFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient("gsk_test").WithBaseURL(server.URL)
			_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"model decommissioned","code":"model_decommissioned","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient("gsk_test").WithBaseURL(server.URL)
	_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "model_decommissioned" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "model decommissioned") {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestChatCompletionContextCancelled(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("gsk_test").WithBaseURL(server.URL)
	_, err := client.ChatCompletion(ctx, ChatRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
