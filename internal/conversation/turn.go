// Package conversation holds per-conversation chat history and builds the
// message payloads sent to the completion API.
package conversation

import "encoding/base64"

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageRef is an inline image payload attached to a composite turn.
type ImageRef struct {
	MediaType string
	Data      []byte
}

// DataURL encodes the image as a base64 data URL.
func (r *ImageRef) DataURL() string {
	return "data:" + r.MediaType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Turn is one message in a conversation transcript. A text turn has a nil
// Image; a composite turn carries both the prompt text and the image it
// refers to. Turns are immutable once appended to a history.
type Turn struct {
	Role  Role
	Text  string
	Image *ImageRef
}

// TextTurn builds a plain text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text}
}

// ImageTurn builds a composite user turn of prompt text plus image payload.
func ImageTurn(text string, image ImageRef) Turn {
	return Turn{Role: RoleUser, Text: text, Image: &image}
}

// IsText reports whether the turn carries no image payload.
func (t Turn) IsText() bool {
	return t.Image == nil
}
