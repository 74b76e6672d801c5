package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ShivamMishra1603/llama-cure/internal/audio"
	"github.com/ShivamMishra1603/llama-cure/internal/config"
	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
	"github.com/ShivamMishra1603/llama-cure/internal/groq"
	"github.com/ShivamMishra1603/llama-cure/internal/upload"
)

type chatCall struct {
	message        string
	conversationID string
	opts           conversation.Options
}

type visionCall struct {
	prompt         string
	image          conversation.ImageRef
	conversationID string
}

type fakeAssistant struct {
	mu     sync.Mutex
	chats  []chatCall
	vision []visionCall
	reply  string
	err    error
}

func (f *fakeAssistant) Chat(_ context.Context, message, conversationID string, opts conversation.Options) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatCall{message: message, conversationID: conversationID, opts: opts})

	id := conversationID
	if id == "" {
		id = "conv-1"
	}
	if f.err != nil {
		return "", id, f.err
	}
	return f.reply, id, nil
}

func (f *fakeAssistant) AnalyzeImage(_ context.Context, prompt string, image conversation.ImageRef, conversationID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vision = append(f.vision, visionCall{prompt: prompt, image: image, conversationID: conversationID})

	id := conversationID
	if id == "" {
		id = "conv-1"
	}
	if f.err != nil {
		return "", id, f.err
	}
	return f.reply, id, nil
}

func (f *fakeAssistant) lastChat(t *testing.T) chatCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chats) == 0 {
		t.Fatal("no chat calls recorded")
	}
	return f.chats[len(f.chats)-1]
}

func (f *fakeAssistant) lastVision(t *testing.T) visionCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.vision) == 0 {
		t.Fatal("no vision calls recorded")
	}
	return f.vision[len(f.vision)-1]
}

type fakeSpeech struct {
	mu            sync.Mutex
	transcribeReq groq.TranscriptionRequest
	uploadBytes   []byte
	text          string
	transcribeErr error
	speechReq     groq.SpeechRequest
	audio         []byte
	speechErr     error
}

func (f *fakeSpeech) Transcribe(_ context.Context, req groq.TranscriptionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribeReq = req
	// Capture the upload while the temp file still exists.
	f.uploadBytes, _ = os.ReadFile(req.FilePath)
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.text, nil
}

func (f *fakeSpeech) Synthesize(_ context.Context, req groq.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechReq = req
	if f.speechErr != nil {
		return nil, f.speechErr
	}
	return f.audio, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeAssistant, *fakeSpeech, string) {
	t.Helper()

	uploadsDir := t.TempDir()
	uploads, err := upload.NewStore(uploadsDir)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}
	audioStore, err := audio.NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create audio store: %v", err)
	}

	cfg := &config.Config{
		Model:        "llama-test-model",
		WhisperModel: "whisper-test",
		TTSModel:     "tts-test",
		TTSVoice:     "Fritz-PlayAI",
		RateLimit:    config.RateLimitConfig{Requests: 100, Window: time.Minute},
	}

	assistant := &fakeAssistant{reply: "ok"}
	speech := &fakeSpeech{text: "hello", audio: []byte("mp3-bytes")}

	h := NewHandler(assistant, speech, uploads, audioStore, cfg)
	t.Cleanup(h.Close)
	return h, assistant, speech, uploadsDir
}

func newTestRouter(t *testing.T) (chi.Router, *fakeAssistant, *fakeSpeech, string) {
	t.Helper()
	h, assistant, speech, uploadsDir := newTestHandler(t)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, assistant, speech, uploadsDir
}

func multipartUpload(t *testing.T, fileField, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", ct)
	}
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "message is required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "message is required" {
		t.Errorf("Expected error message, got %v", got["error"])
	}
}

func TestRootIdentifiesService(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var got map[string]string
	decodeJSON(t, rr, &got)

	if got["message"] != "Welcome to Llama Cure API" {
		t.Errorf("unexpected welcome message %q", got["message"])
	}
	if got["version"] != Version {
		t.Errorf("expected version %q, got %q", Version, got["version"])
	}
	if got["model"] != "llama-test-model" {
		t.Errorf("expected configured model, got %q", got["model"])
	}
}
