// Package gemini adapts the Google Gemini API to the provider interface.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/antigravity-ai/antigravity/pkg/provider"
)

const defaultModel = "gemini-2.0-flash"

type GeminiProvider struct {
	id     provider.ProviderID
	client *genai.Client
	model  string
}

// New creates a Gemini provider. The API key must be non-empty; model may be
// empty to use the default flash model.
func New(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiProvider{
		id:     provider.ProviderID("gemini"),
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) ID() provider.ProviderID {
	return p.id
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.7)),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", provider.Classify(p.id, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &provider.TransientError{Provider: p.id, Err: fmt.Errorf("empty response")}
	}

	text := resp.Text()
	if text == "" {
		return "", &provider.TransientError{Provider: p.id, Err: fmt.Errorf("empty text in response")}
	}
	return text, nil
}
