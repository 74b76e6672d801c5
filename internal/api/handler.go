// Package api provides HTTP handlers for the Llama Cure API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ShivamMishra1603/llama-cure/internal/audio"
	"github.com/ShivamMishra1603/llama-cure/internal/config"
	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
	"github.com/ShivamMishra1603/llama-cure/internal/groq"
	"github.com/ShivamMishra1603/llama-cure/internal/upload"
)

const (
	// Version reported by the root endpoint.
	Version = "0.1.0"

	// maxRequestBodySize limits JSON and form bodies.
	maxRequestBodySize = 1 << 20 // 1MB

	// maxUploadBodySize limits multipart upload bodies (audio and images).
	maxUploadBodySize = 26 << 20 // 26MB

	// maxUploadMemory is how much of a multipart body is held in memory
	// before spilling to disk.
	maxUploadMemory = 4 << 20 // 4MB
)

// Assistant produces model replies and maintains conversation history.
type Assistant interface {
	Chat(ctx context.Context, message, conversationID string, opts conversation.Options) (string, string, error)
	AnalyzeImage(ctx context.Context, prompt string, image conversation.ImageRef, conversationID string) (string, string, error)
}

// SpeechClient converts between audio and text.
type SpeechClient interface {
	Transcribe(ctx context.Context, req groq.TranscriptionRequest) (string, error)
	Synthesize(ctx context.Context, req groq.SpeechRequest) ([]byte, error)
}

// Handler provides the HTTP handlers and their shared dependencies.
type Handler struct {
	assistant Assistant
	speech    SpeechClient
	uploads   *upload.Store
	audio     *audio.Store
	limiter   *RateLimiter
	cfg       *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(assistant Assistant, speech SpeechClient, uploads *upload.Store, audioStore *audio.Store, cfg *config.Config) *Handler {
	return &Handler{
		assistant: assistant,
		speech:    speech,
		uploads:   uploads,
		audio:     audioStore,
		limiter:   NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		cfg:       cfg,
	}
}

// RegisterRoutes registers all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Post("/chat", h.HandleChat)
		r.Post("/voice/transcribe", h.HandleTranscribe)
		r.Post("/voice/synthesize", h.HandleSynthesize)
		r.Post("/vision/analyze", h.HandleAnalyze)
	})
}

// HandleRoot handles GET / and identifies the service.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Llama Cure API",
		"version": Version,
		"model":   h.cfg.Model,
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.limiter.Close()
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
