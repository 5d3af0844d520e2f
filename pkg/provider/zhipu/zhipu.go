// Package zhipu talks to the Zhipu GLM chat-completion endpoint.
// The API is OpenAI-compatible, so the adapter is a small hand-rolled
// HTTP client rather than an SDK binding.
package zhipu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antigravity-ai/antigravity/pkg/provider"
)

const (
	defaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"
	defaultModel   = "glm-4-flash"
)

type Option func(*ZhipuProvider)

// WithBaseURL overrides the API endpoint (tests point this at a local server).
func WithBaseURL(url string) Option {
	return func(p *ZhipuProvider) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithModel overrides the default glm-4-flash model.
func WithModel(model string) Option {
	return func(p *ZhipuProvider) { p.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *ZhipuProvider) { p.client = c }
}

type ZhipuProvider struct {
	id      provider.ProviderID
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New creates a Zhipu GLM provider. The API key must be non-empty.
func New(apiKey string, opts ...Option) (*ZhipuProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("zhipu: api key is required")
	}
	p := &ZhipuProvider{
		id:      provider.ProviderID("zhipu"),
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *ZhipuProvider) ID() provider.ProviderID {
	return p.id
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *ZhipuProvider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", &provider.FatalError{Provider: p.id, Err: err}
	}

	url := p.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &provider.FatalError{Provider: p.id, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors (timeouts, resets) are worth retrying.
		return "", &provider.TransientError{Provider: p.id, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &provider.TransientError{Provider: p.id, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &provider.TransientError{Provider: p.id, Err: err}
		}
		return "", &provider.FatalError{Provider: p.id, Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &provider.FatalError{Provider: p.id, Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return "", provider.Classify(p.id, fmt.Errorf("%s: %s", parsed.Error.Code, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &provider.TransientError{Provider: p.id, Err: fmt.Errorf("empty completion")}
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
