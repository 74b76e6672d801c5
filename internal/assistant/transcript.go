package assistant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ShivamMishra1603/llama-cure/internal/config"
	"github.com/ShivamMishra1603/llama-cure/internal/conversation"
)

// TranscriptEvent is one logged turn.
type TranscriptEvent struct {
	Timestamp      string `json:"ts"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Text           string `json:"text"`
	HasImage       bool   `json:"has_image,omitempty"`
}

// TranscriptLogger appends conversation turns as NDJSON, one file per
// conversation. Events are written on a background goroutine; Record never
// blocks the request path and drops events when the queue is full.
type TranscriptLogger struct {
	enabled bool
	dir     string
	queue   chan TranscriptEvent
	done    chan struct{}
	log     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewTranscriptLogger creates a logger from config. A disabled config
// yields a logger whose Record and Close are no-ops.
func NewTranscriptLogger(cfg config.TranscriptLogConfig, log *slog.Logger) (*TranscriptLogger, error) {
	if !cfg.Enabled {
		return &TranscriptLogger{}, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}

	l := &TranscriptLogger{
		enabled: true,
		dir:     cfg.Dir,
		queue:   make(chan TranscriptEvent, cfg.QueueSize),
		done:    make(chan struct{}),
		log:     log,
	}
	go l.run()
	return l, nil
}

// Record enqueues a turn for logging.
func (l *TranscriptLogger) Record(conversationID string, turn conversation.Turn) {
	if !l.enabled {
		return
	}
	event := TranscriptEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: conversationID,
		Role:           string(turn.Role),
		Text:           turn.Text,
		HasImage:       !turn.IsText(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		l.log.Warn("Transcript queue full, dropping event", "conversation_id", conversationID)
	}
}

// Close drains pending events and stops the writer goroutine.
func (l *TranscriptLogger) Close() error {
	if !l.enabled {
		return nil
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.queue)
	<-l.done
	return nil
}

func (l *TranscriptLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.append(event); err != nil {
			l.log.Warn("Failed to write transcript event",
				"conversation_id", event.ConversationID,
				"error", err)
		}
	}
}

func (l *TranscriptLogger) append(event TranscriptEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	path := filepath.Join(l.dir, event.ConversationID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
