// Package validation checks generation request bodies before any provider call.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/genrelay/api/internal/models"
)

// Messages returned to the caller on a failed structural check
const (
	MsgInvalidPrompt     = "Invalid or missing 'prompt' in the request body."
	MsgMissingImageParts = "Missing 'imageParts' in the request body."
	MsgInvalidBody       = "Request body must be a JSON object."
)

// Request body field names
const (
	FieldPrompt     = "prompt"
	FieldImageParts = "imageParts"
)

// ErrInvalidInput is matched by every validation failure
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes which field failed and the message for the caller
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

// Is lets errors.Is match ErrInvalidInput
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Body is a decoded request body keyed by top-level field
type Body map[string]json.RawMessage

// DecodeBody reads a JSON object from r. An empty body decodes to an empty object.
// Body size errors are returned unchanged so the caller can map them.
func DecodeBody(r io.Reader) (Body, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Body{}, nil
	}

	var body Body
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, &InvalidInputError{Field: "body", Message: MsgInvalidBody}
	}
	return body, nil
}

// ValidateTextRequest requires a non-empty string prompt
func ValidateTextRequest(body Body) (models.GenerationRequest, error) {
	prompt, err := requirePrompt(body)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	return models.GenerationRequest{Prompt: prompt}, nil
}

// ValidateImageRequest requires a non-empty string prompt and a present imageParts.
// Any present imageParts value is accepted; a single value becomes a one-element sequence.
func ValidateImageRequest(body Body) (models.GenerationRequest, error) {
	prompt, err := requirePrompt(body)
	if err != nil {
		return models.GenerationRequest{}, err
	}

	raw, ok := body[FieldImageParts]
	if !ok {
		return models.GenerationRequest{}, &InvalidInputError{Field: FieldImageParts, Message: MsgMissingImageParts}
	}

	var attachments models.Attachments
	if err := attachments.UnmarshalJSON(raw); err != nil {
		return models.GenerationRequest{}, &InvalidInputError{Field: FieldImageParts, Message: MsgMissingImageParts}
	}

	return models.GenerationRequest{Prompt: prompt, Attachments: attachments}, nil
}

func requirePrompt(body Body) (string, error) {
	invalid := &InvalidInputError{Field: FieldPrompt, Message: MsgInvalidPrompt}

	raw, ok := body[FieldPrompt]
	if !ok {
		return "", invalid
	}

	var prompt string
	if err := json.Unmarshal(raw, &prompt); err != nil {
		return "", invalid
	}
	// json.Unmarshal leaves a string untouched on null
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || prompt == "" {
		return "", invalid
	}
	return prompt, nil
}
