// Package oracle provides the reasoning oracle used as the last resort for
// verification challenges no deterministic solver can answer.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/UhthredB/tsaheylu-sub000/pkg/challenge"
)

const DefaultModel = "gemini-2.0-flash"

const systemInstruction = "You answer verification puzzles. Reply with the bare answer value only: " +
	"no explanation, no markdown, no quotes, no trailing punctuation."

// ErrEmptyCompletion is returned when the model produced no text.
var ErrEmptyCompletion = errors.New("oracle returned an empty completion")

// generator is the slice of *genai.Models the oracle uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIOracle completes prompts with a Gemini model at temperature 0.
type GenAIOracle struct {
	models    generator
	model     string
	maxTokens int32
}

// NewGenAIOracle creates an oracle backed by the Gemini API.
func NewGenAIOracle(ctx context.Context, apiKey, model string) (*GenAIOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newOracle(client.Models, model), nil
}

func newOracle(models generator, model string) *GenAIOracle {
	if model == "" {
		model = DefaultModel
	}
	return &GenAIOracle{models: models, model: model, maxTokens: 64}
}

// Complete sends prompt and returns the model's text, trimmed.
func (o *GenAIOracle) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := o.models.GenerateContent(ctx, o.model, contents, &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   o.maxTokens,
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}

	logrus.Debugf("oracle %s answered with %d chars", o.model, len(text))
	return text, nil
}

// Name returns the oracle name.
func (o *GenAIOracle) Name() string {
	return fmt.Sprintf("genai:%s", o.model)
}

var _ challenge.Oracle = (*GenAIOracle)(nil)
