package conversation

import (
	"github.com/ShivamMishra1603/llama-cure/internal/groq"
)

// Fixed generation defaults for every completion call.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultTopP        = 0.9

	// ConciseMaxTokens replaces the default token limit in concise mode.
	ConciseMaxTokens = 150
)

// DefaultSystemPrompt opens every plain chat conversation.
const DefaultSystemPrompt = "You are LlamaCure, a helpful medical assistant. \n" +
	"You can provide general medical information and guidance, but always remind users to consult healthcare professionals for proper diagnosis and treatment. \n" +
	"You should be accurate, compassionate, and clear in your responses. \n" +
	"If you're unsure about something, acknowledge your limitations and avoid making definitive claims."

// ConciseSystemPrompt replaces the default in concise mode when the caller
// does not supply a system prompt of their own.
const ConciseSystemPrompt = "You are a medical assistant providing brief, concise responses. Keep all answers under 100 words. Be direct and focus on the most important information."

// visionFraming is prepended to the user's prompt for image analysis. Vision
// requests carry no separate system turn.
const visionFraming = "You are a helpful medical assistant. Analyze this medical image and provide detailed information. Remember to be accurate, compassionate, and clear. Remind the user to consult healthcare professionals for proper diagnosis and treatment."

// Options are per-request generation overrides. Nil pointer fields mean the
// caller left the parameter unset. Options are resolved against the fixed
// defaults before each call and are never stored in history.
type Options struct {
	Concise      bool
	MaxTokens    *int
	Temperature  *float64
	SystemPrompt string
}

// Params are the fully resolved parameters for one completion call.
type Params struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	TopP         float64
}

// Resolve applies concise mode and explicit overrides. An explicit value
// always wins; concise mode only changes what the defaults are.
func (o Options) Resolve() Params {
	p := Params{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		TopP:         DefaultTopP,
	}
	if o.Concise {
		p.SystemPrompt = ConciseSystemPrompt
		p.MaxTokens = ConciseMaxTokens
	}
	if o.SystemPrompt != "" {
		p.SystemPrompt = o.SystemPrompt
	}
	if o.MaxTokens != nil {
		p.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		p.Temperature = *o.Temperature
	}
	return p
}

// BuildChat assembles the message sequence for a text chat call: the system
// prompt, the prior history in append order, then the new user message.
// History is never reordered, deduplicated, or trimmed.
func BuildChat(history []Turn, userText, systemPrompt string) []groq.Message {
	msgs := make([]groq.Message, 0, len(history)+2)
	msgs = append(msgs, groq.TextMessage(string(RoleSystem), systemPrompt))
	for _, turn := range history {
		msgs = append(msgs, groq.TextMessage(string(turn.Role), turn.Text))
	}
	msgs = append(msgs, groq.TextMessage(string(RoleUser), userText))
	return msgs
}

// BuildVision assembles the message sequence for an image analysis call.
// There is no system turn; the medical framing is folded into the user's
// prompt text inside a single composite message. Only text turns from prior
// history are replayed, so earlier image payloads never travel again; their
// text paraphrase is all that survives.
func BuildVision(history []Turn, prompt string, image ImageRef) []groq.Message {
	msgs := make([]groq.Message, 0, len(history)+1)
	for _, turn := range history {
		if !turn.IsText() {
			continue
		}
		msgs = append(msgs, groq.TextMessage(string(turn.Role), turn.Text))
	}
	parts := []groq.ContentPart{
		groq.TextPart(visionFraming + " " + prompt),
		groq.ImagePart(image.DataURL()),
	}
	msgs = append(msgs, groq.PartsMessage(string(RoleUser), parts))
	return msgs
}
