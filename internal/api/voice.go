package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/ShivamMishra1603/llama-cure/internal/groq"
)

// TranscribeResponse is the body returned by POST /api/voice/transcribe.
type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

// HandleTranscribe handles POST /api/voice/transcribe. It accepts a
// multipart form with an "audio" file field.
func (h *Handler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, `{"error": "invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, `{"error": "audio file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.uploads.Save(file, "audio", "wav")
	if err != nil {
		slog.Error("Failed to store audio upload", "error", err)
		Error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() {
		if err := h.uploads.Remove(path); err != nil {
			slog.Warn("Failed to remove temp audio file", "path", path, "error", err)
		}
	}()

	slog.Info("Transcription request", "filename", header.Filename, "size", header.Size)

	text, err := h.speech.Transcribe(r.Context(), groq.TranscriptionRequest{
		Model:    h.cfg.WhisperModel,
		FilePath: path,
	})
	if err != nil {
		slog.Error("Transcription failed", "error", err)
		JSON(w, http.StatusOK, TranscribeResponse{
			Transcription: "Error transcribing audio: " + err.Error(),
		})
		return
	}

	JSON(w, http.StatusOK, TranscribeResponse{Transcription: text})
}

// HandleSynthesize handles POST /api/voice/synthesize. It accepts a form
// with a "text" field and responds with an MP3 file.
func (h *Handler) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	text := r.FormValue("text")
	if text == "" {
		http.Error(w, `{"error": "text is required"}`, http.StatusBadRequest)
		return
	}

	slog.Info("Synthesis request", "text_len", len(text))

	data, err := h.speech.Synthesize(r.Context(), groq.SpeechRequest{
		Model:  h.cfg.TTSModel,
		Input:  text,
		Voice:  h.cfg.TTSVoice,
		Format: "mp3",
	})
	if err != nil {
		slog.Error("Speech synthesis failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to synthesize speech")
		return
	}

	path, err := h.audio.SaveSpeech(data)
	if err != nil {
		slog.Error("Failed to save speech file", "error", err)
		Error(w, http.StatusInternalServerError, "failed to store speech file")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
