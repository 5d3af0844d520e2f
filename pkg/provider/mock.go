package provider

import (
	"context"
	"errors"
	"sync"
)

// MockStep scripts one Generate call on a MockProvider.
type MockStep struct {
	Text string
	Err  error
}

// MockProvider replays a scripted sequence of responses for testing.
// Once the script is exhausted, the last step repeats.
type MockProvider struct {
	id    ProviderID
	mu    sync.Mutex
	steps []MockStep
	calls int
}

// NewMockProvider creates a mock provider that replays the given steps.
func NewMockProvider(id string, steps ...MockStep) *MockProvider {
	return &MockProvider{
		id:    ProviderID(id),
		steps: steps,
	}
}

func (p *MockProvider) ID() ProviderID {
	return p.id
}

// Calls returns how many times Generate has been invoked.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.steps) == 0 {
		p.calls++
		return "", &FatalError{Provider: p.id, Err: errors.New("no scripted steps")}
	}

	idx := p.calls
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	p.calls++

	step := p.steps[idx]
	if step.Err != nil {
		return "", Classify(p.id, step.Err)
	}
	return step.Text, nil
}
