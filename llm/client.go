package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Accepted model identifiers. Model selection is by name only; anything
// outside this pair is rejected at configuration time.
const (
	ModelFlash = "gemini-2.5-flash"
	ModelPro   = "gemini-2.5-pro"

	DefaultModel = ModelFlash
)

var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrUnknownModel  = errors.New("unknown model identifier")
)

// AcceptedModel reports whether name is one of the configured model
// identifiers.
func AcceptedModel(name string) bool {
	return name == ModelFlash || name == ModelPro
}

// Generator is the language-model boundary: rendered instruction text in,
// free-form text out. Implementations make exactly one call per
// invocation; there is no retry and no caching, so every call is billed
// and executed fresh.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Factory hands out a Generator for a named model. The pipeline selects
// the model per plan, so generators are constructed per run.
type Factory interface {
	GeneratorFor(model string) (Generator, error)
}

// GeminiFactory builds GeminiClients sharing one underlying API client.
type GeminiFactory struct {
	client *genai.Client
}

// NewGeminiFactory creates a factory over an initialized genai client.
func NewGeminiFactory(client *genai.Client) *GeminiFactory {
	return &GeminiFactory{client: client}
}

// GeneratorFor returns a Generator bound to the named model.
func (f *GeminiFactory) GeneratorFor(model string) (Generator, error) {
	return NewGeminiClient(f.client, model)
}

// GeminiClient generates text through the Gemini API at temperature 0.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient wraps a genai client for the named model. The model
// must be one of the accepted identifiers.
func NewGeminiClient(client *genai.Client, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultModel
	}
	if !AcceptedModel(model) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends one synchronous generation request and concatenates the
// text parts of the response. Any transport, quota, or safety failure
// surfaces as an error; the caller decides what shape to fall back to.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := builder.String()
	if result == "" {
		return "", ErrEmptyResponse
	}

	return result, nil
}
