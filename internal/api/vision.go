package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
)

// AnalyzeResponse is the body returned by POST /api/vision/analyze.
type AnalyzeResponse struct {
	Analysis       string `json:"analysis"`
	ConversationID string `json:"conversation_id"`
}

// HandleAnalyze handles POST /api/vision/analyze. It accepts a multipart
// form with an "image" file field, a required "prompt" field and an
// optional "conversation_id" field.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, `{"error": "invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	prompt := r.FormValue("prompt")
	if prompt == "" {
		http.Error(w, `{"error": "prompt is required"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, `{"error": "image file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.uploads.Save(file, "image", "jpg")
	if err != nil {
		slog.Error("Failed to store image upload", "error", err)
		Error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() {
		if err := h.uploads.Remove(path); err != nil {
			slog.Warn("Failed to remove temp image file", "path", path, "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read image upload", "path", path, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	slog.Info("Vision request",
		"filename", header.Filename,
		"size", header.Size,
		"prompt_len", len(prompt))

	image := conversation.ImageRef{MediaType: "image/jpeg", Data: data}
	analysis, conversationID, err := h.assistant.AnalyzeImage(r.Context(), prompt, image, r.FormValue("conversation_id"))
	if err != nil {
		slog.Error("Image analysis failed", "conversation_id", conversationID, "error", err)
		JSON(w, http.StatusOK, AnalyzeResponse{
			Analysis:       "Error analyzing image: " + err.Error(),
			ConversationID: conversationID,
		})
		return
	}

	JSON(w, http.StatusOK, AnalyzeResponse{
		Analysis:       analysis,
		ConversationID: conversationID,
	})
}
