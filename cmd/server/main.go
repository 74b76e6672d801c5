// Llama Cure - medical chatbot API server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShivamMishra1603/llama-cure/internal/api"
	"github.com/ShivamMishra1603/llama-cure/internal/assistant"
	"github.com/ShivamMishra1603/llama-cure/internal/audio"
	"github.com/ShivamMishra1603/llama-cure/internal/config"
	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
	"github.com/ShivamMishra1603/llama-cure/internal/groq"
	"github.com/ShivamMishra1603/llama-cure/internal/middleware"
	"github.com/ShivamMishra1603/llama-cure/internal/upload"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		slog.SetDefault(logger)
	}

	slog.Info("Starting server", "addr", cfg.Addr(), "model", cfg.Model, "debug", cfg.Debug)

	// Initialize dependencies.
	uploads, err := upload.NewStore(cfg.TempDir)
	if err != nil {
		slog.Error("Failed to initialize upload store", "error", err)
		os.Exit(1)
	}

	audioStore, err := audio.NewStore(cfg.AudioDir, cfg.AudioTTL)
	if err != nil {
		slog.Error("Failed to initialize audio store", "error", err)
		os.Exit(1)
	}

	convStore := conversation.NewStore(cfg.ConversationTTL)

	client := groq.NewClient(cfg.GroqAPIKey).
		WithBaseURL(cfg.GroqBaseURL).
		WithTimeout(cfg.RequestTimeout)

	transcript, err := assistant.NewTranscriptLogger(cfg.TranscriptLog, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcript.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	// Initialize services and handlers.
	svc := assistant.New(convStore, client, cfg.Model, transcript)
	handler := api.NewHandler(svc, client, uploads, audioStore, cfg)
	defer handler.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	// Create server.
	// Model calls count against the write timeout, so it must exceed the
	// upstream request timeout.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start background sweepers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	convStore.StartSweeper(ctx)
	audioStore.StartSweeper(ctx, time.Hour)
	slog.Info("Background sweepers started",
		"conversation_ttl", cfg.ConversationTTL,
		"audio_ttl", cfg.AudioTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
