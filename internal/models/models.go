package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProfileKind selects the generation profile for a request
type ProfileKind string

const (
	ProfileText  ProfileKind = "text"
	ProfileImage ProfileKind = "image"
)

// Profile is an immutable bundle of model identifier and sampling parameters
type Profile struct {
	Name            ProfileKind `json:"name"`
	Model           string      `json:"model"`
	MaxOutputTokens int32       `json:"max_output_tokens"`
	Temperature     float32     `json:"temperature"`
	TopP            float32     `json:"top_p"`
	TopK            int32       `json:"top_k"`
	StopSequences   []string    `json:"stop_sequences"`
}

// DefaultModel is the Gemini model both profiles are bound to
const DefaultModel = "gemini-2.0-flash"

// profiles is read-only after package init.
var profiles = map[ProfileKind]Profile{
	ProfileText: {
		Name:            ProfileText,
		Model:           DefaultModel,
		MaxOutputTokens: 2048,
		Temperature:     0.2,
		TopP:            0.95,
		TopK:            1,
		StopSequences:   []string{},
	},
	ProfileImage: {
		Name:            ProfileImage,
		Model:           DefaultModel,
		MaxOutputTokens: 2048,
		Temperature:     0.9,
		TopP:            1,
		TopK:            16,
		StopSequences:   []string{},
	},
}

// LookupProfile returns a copy of the profile registered for kind
func LookupProfile(kind ProfileKind) (Profile, bool) {
	p, ok := profiles[kind]
	if !ok {
		return Profile{}, false
	}
	p.StopSequences = slices.Clone(p.StopSequences)
	return p, true
}

// Attachment is an opaque JSON object forwarded to the provider as-is
type Attachment = json.RawMessage

// Attachments accepts either a single value or an array of values.
// A single value is normalized into a one-element sequence.
type Attachments []Attachment

// UnmarshalJSON implements json.Unmarshaler
func (a *Attachments) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		out := make(Attachments, 0, len(items))
		for _, item := range items {
			out = append(out, Attachment(item))
		}
		*a = out
		return nil
	}

	if !json.Valid(trimmed) {
		return errors.New("attachments: invalid JSON")
	}
	*a = Attachments{Attachment(slices.Clone(trimmed))}
	return nil
}

// GenerationRequest is the validated body of a generation call
type GenerationRequest struct {
	Prompt      string      `json:"prompt"`
	Attachments Attachments `json:"imageParts,omitempty"`
}

// Part is one element of the provider input: either text or an attachment
type Part struct {
	Text       string
	Attachment Attachment
}

// TextPart wraps a prompt
func TextPart(text string) Part {
	return Part{Text: text}
}

// AttachmentPart wraps an attachment
func AttachmentPart(a Attachment) Part {
	return Part{Attachment: a}
}

// IsText reports whether the part carries text rather than an attachment
func (p Part) IsText() bool {
	return p.Attachment == nil
}

// GenerationResult is returned to the caller on success
type GenerationResult struct {
	Text string `json:"text"`
}

// GenerationEvent is published after every provider call.
// It never carries prompt or output text.
type GenerationEvent struct {
	ID          uuid.UUID   `json:"id"`
	RequestID   string      `json:"request_id,omitempty"`
	Profile     ProfileKind `json:"profile"`
	Model       string      `json:"model"`
	PromptChars int         `json:"prompt_chars"`
	Attachments int         `json:"attachments"`
	Success     bool        `json:"success"`
	LatencyMS   int64       `json:"latency_ms"`
	Timestamp   time.Time   `json:"timestamp"`
}
