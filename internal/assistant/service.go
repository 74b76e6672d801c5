// Package assistant orchestrates conversation state, prompt construction,
// and the completion API for chat and image analysis.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
	"github.com/ShivamMishra1603/llama-cure/internal/groq"
)

// CompletionClient is the slice of the Groq client the service depends on.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req groq.ChatRequest) (*groq.ChatResponse, error)
}

// Service runs chat and image-analysis exchanges. Each exchange holds its
// conversation exclusively from history read through append, so concurrent
// requests on one conversation serialize instead of interleaving.
type Service struct {
	store      *conversation.Store
	client     CompletionClient
	model      string
	transcript *TranscriptLogger
}

// New creates a service. The transcript logger may be disabled but not nil.
func New(store *conversation.Store, client CompletionClient, model string, transcript *TranscriptLogger) *Service {
	return &Service{
		store:      store,
		client:     client,
		model:      model,
		transcript: transcript,
	}
}

// Chat runs one text exchange and returns the reply together with the
// conversation id it landed on. A failed completion leaves history
// untouched; the caller still receives the id so a retry can continue the
// same conversation.
func (s *Service) Chat(ctx context.Context, message, conversationID string, opts conversation.Options) (string, string, error) {
	h := s.store.Acquire(conversationID)
	defer h.Release()

	params := opts.Resolve()
	msgs := conversation.BuildChat(h.History(), message, params.SystemPrompt)

	resp, err := s.client.ChatCompletion(ctx, groq.ChatRequest{
		Model:       s.model,
		Messages:    msgs,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		TopP:        params.TopP,
	})
	if err != nil {
		return "", h.ID(), fmt.Errorf("chat completion: %w", err)
	}

	reply := resp.Content()
	userTurn := conversation.TextTurn(conversation.RoleUser, message)
	assistantTurn := conversation.TextTurn(conversation.RoleAssistant, reply)
	h.AppendExchange(userTurn, assistantTurn)
	s.transcript.Record(h.ID(), userTurn)
	s.transcript.Record(h.ID(), assistantTurn)

	slog.Debug("Chat exchange completed",
		"conversation_id", h.ID(),
		"created", h.Created(),
		"history_len", h.Len(),
		"total_tokens", resp.Usage.TotalTokens)

	return reply, h.ID(), nil
}

// AnalyzeImage runs one image-analysis exchange. Only the text prompt is
// stored in history; the image payload never travels again on later calls.
func (s *Service) AnalyzeImage(ctx context.Context, prompt string, image conversation.ImageRef, conversationID string) (string, string, error) {
	h := s.store.Acquire(conversationID)
	defer h.Release()

	msgs := conversation.BuildVision(h.History(), prompt, image)

	resp, err := s.client.ChatCompletion(ctx, groq.ChatRequest{
		Model:       s.model,
		Messages:    msgs,
		Temperature: conversation.DefaultTemperature,
		MaxTokens:   conversation.DefaultMaxTokens,
		TopP:        conversation.DefaultTopP,
	})
	if err != nil {
		return "", h.ID(), fmt.Errorf("image analysis: %w", err)
	}

	analysis := resp.Content()
	userTurn := conversation.TextTurn(conversation.RoleUser, prompt)
	assistantTurn := conversation.TextTurn(conversation.RoleAssistant, analysis)
	h.AppendExchange(userTurn, assistantTurn)
	s.transcript.Record(h.ID(), userTurn)
	s.transcript.Record(h.ID(), assistantTurn)

	slog.Debug("Image analysis completed",
		"conversation_id", h.ID(),
		"created", h.Created(),
		"history_len", h.Len(),
		"total_tokens", resp.Usage.TotalTokens)

	return analysis, h.ID(), nil
}
