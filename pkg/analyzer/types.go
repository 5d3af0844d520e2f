// Package analyzer routes analysis prompts across configured LLM providers.
//
// The router enforces a per-provider request budget (per-minute and per-day
// windows plus an inter-request cooldown), retries transient failures with
// linear backoff, and fails over to the next configured provider. When every
// provider is exhausted it returns an explicit Unavailable result rather
// than an error; callers are expected to fall back to rule-based analysis.
package analyzer

import (
	"errors"
	"time"

	"github.com/antigravity-ai/antigravity/pkg/provider"
)

// ErrRateLimited means this process would exceed its own configured budget
// for a provider. It is raised before any network call and is never retried
// within the same Analyze call; the router moves on to the next candidate.
var ErrRateLimited = errors.New("rate limit exceeded")

// ProviderConfig holds the immutable per-provider budget, loaded at startup.
// A zero limit disables that window; a zero cooldown disables spacing.
type ProviderConfig struct {
	Name              provider.ProviderID
	RequestsPerMinute int
	RequestsPerDay    int
	Cooldown          time.Duration
}

// RetryConfig bounds the transient-error retry loop for one provider call.
type RetryConfig struct {
	// MaxAttempts is the total number of call attempts (first try included).
	MaxAttempts int
	// Base is multiplied by the attempt number for linear backoff.
	Base time.Duration
}

// DefaultRetry mirrors the historical behavior: three attempts with
// 10s, 20s backoff between them.
func DefaultRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Base: 10 * time.Second}
}

// Request is a single analysis request.
type Request struct {
	Prompt string
	// Prefer names the provider to try first. Empty means the configured
	// priority order.
	Prefer provider.ProviderID
}

// Result is either generated text or an explicit "no provider available"
// signal. Available is the sentinel: an empty Text with Available true is
// still a (degenerate) success, and Text is never inspected to infer failure.
type Result struct {
	Text      string
	Provider  provider.ProviderID
	Available bool
}

// Unavailable is the router-level outcome when every candidate is exhausted.
// It is a normal value, not an error; callers must have a non-AI fallback.
func Unavailable() Result {
	return Result{}
}

// ProviderStatus is a point-in-time view of one provider's limiter state,
// exposed on the status API.
type ProviderStatus struct {
	Name          provider.ProviderID `json:"name"`
	MinuteCount   int                 `json:"minute_count"`
	MinuteLimit   int                 `json:"minute_limit"`
	DayCount      int                 `json:"day_count"`
	DayLimit      int                 `json:"day_limit"`
	Cooldown      time.Duration       `json:"cooldown_ns"`
	LastRequestAt time.Time           `json:"last_request_at"`
}
