package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/genrelay/api/internal/models"
	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no credential is supplied
var ErrMissingAPIKey = errors.New("gemini: missing API key")

// ErrEmptyResponse is returned when the client hands back no response at all
var ErrEmptyResponse = errors.New("gemini: empty response")

// contentGenerator is the subset of *genai.Models the provider calls
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider calls the Gemini API. One instance is shared by all requests.
type Provider struct {
	models contentGenerator
}

// NewProvider builds a Gemini API client bound to apiKey
func NewProvider(ctx context.Context, apiKey string) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Provider{models: client.Models}, nil
}

// Generate sends parts as a single user turn and returns the response text
func (p *Provider) Generate(ctx context.Context, profile models.Profile, parts []models.Part) (string, error) {
	genParts, err := toGenaiParts(parts)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromParts(genParts, genai.RoleUser)}

	resp, err := p.models.GenerateContent(ctx, profile.Model, contents, generationConfig(profile))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp)
}

// Status is reported by the deep health check
func (p *Provider) Status() string {
	if p == nil || p.models == nil {
		return "not configured"
	}
	return "configured"
}

func generationConfig(profile models.Profile) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		MaxOutputTokens: profile.MaxOutputTokens,
		Temperature:     genai.Ptr(profile.Temperature),
		TopP:            genai.Ptr(profile.TopP),
		TopK:            genai.Ptr(float32(profile.TopK)),
		StopSequences:   profile.StopSequences,
	}
}

// toGenaiParts decodes each attachment as a REST-shaped Part,
// e.g. {"inlineData":{"mimeType":"image/png","data":"<base64>"}}.
// A JSON string attachment becomes a text part.
func toGenaiParts(parts []models.Part) ([]*genai.Part, error) {
	out := make([]*genai.Part, 0, len(parts))
	for i, part := range parts {
		if part.IsText() {
			out = append(out, genai.NewPartFromText(part.Text))
			continue
		}

		if bytes.HasPrefix(bytes.TrimSpace(part.Attachment), []byte(`"`)) {
			var text string
			if err := json.Unmarshal(part.Attachment, &text); err != nil {
				return nil, fmt.Errorf("gemini: decode attachment %d: %w", i, err)
			}
			out = append(out, genai.NewPartFromText(text))
			continue
		}

		var gp genai.Part
		if err := json.Unmarshal(part.Attachment, &gp); err != nil {
			return nil, fmt.Errorf("gemini: decode attachment %d: %w", i, err)
		}
		if gp.InlineData == nil && gp.FileData == nil && gp.Text == "" {
			return nil, fmt.Errorf("gemini: attachment %d has no inlineData, fileData or text", i)
		}
		out = append(out, &gp)
	}
	return out, nil
}

var blockedFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReason("SAFETY"):             true,
	genai.FinishReason("RECITATION"):         true,
	genai.FinishReason("LANGUAGE"):           true,
	genai.FinishReason("BLOCKLIST"):          true,
	genai.FinishReason("PROHIBITED_CONTENT"): true,
	genai.FinishReason("SPII"):               true,
}

// responseText concatenates the text parts of the first candidate.
// Only blocked prompts and blocked candidates are errors; a response
// with no candidates or no text yields "".
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReason("BLOCKED_REASON_UNSPECIFIED") {
		return "", fmt.Errorf("gemini: prompt blocked (%s)", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	candidate := resp.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return "", fmt.Errorf("gemini: candidate blocked (FinishReason: %s)", candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
