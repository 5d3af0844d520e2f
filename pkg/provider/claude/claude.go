// Package claude adapts the Anthropic messages API to the provider interface.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/antigravity-ai/antigravity/pkg/provider"
)

const defaultModel = "claude-3-5-haiku-latest"

type ClaudeProvider struct {
	id        provider.ProviderID
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Claude provider. The API key must be non-empty; model may be
// empty to use the default haiku model.
func New(apiKey, model string) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("claude: api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	return &ClaudeProvider{
		id:        provider.ProviderID("claude"),
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 1024,
	}, nil
}

func (p *ClaudeProvider) ID() provider.ProviderID {
	return p.id
}

func (p *ClaudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", provider.Classify(p.id, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &provider.TransientError{Provider: p.id, Err: fmt.Errorf("empty response")}
	}
	return text.String(), nil
}
