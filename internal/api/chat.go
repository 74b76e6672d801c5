package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Concise        bool     `json:"concise,omitempty"`
	MaxTokens      *int     `json:"max_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	SystemPrompt   string   `json:"system_prompt,omitempty"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, `{"error": "message is required"}`, http.StatusBadRequest)
		return
	}

	slog.Info("Chat request",
		"conversation_id", req.ConversationID,
		"concise", req.Concise,
		"message_len", len(req.Message))

	opts := conversation.Options{
		Concise:      req.Concise,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
		SystemPrompt: req.SystemPrompt,
	}

	reply, conversationID, err := h.assistant.Chat(r.Context(), req.Message, req.ConversationID, opts)
	if err != nil {
		slog.Error("Chat completion failed", "conversation_id", conversationID, "error", err)
		// Upstream failures ride in the response text so the caller keeps
		// its conversation id and can simply retry the turn.
		JSON(w, http.StatusOK, ChatResponse{
			Response:       "Error generating response: " + err.Error(),
			ConversationID: conversationID,
		})
		return
	}

	JSON(w, http.StatusOK, ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
	})
}
