package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/provider"
)

// AuditSink receives one record per provider attempt. Implemented by the
// sqlite store; a nil sink disables auditing.
type AuditSink interface {
	AppendAudit(ctx context.Context, provider string, outcome string, latency time.Duration, detail string) error
}

// Router owns the per-provider limiter state and the failover policy.
// Construct one at startup and share it between the bot loop, the scheduler,
// and the MCP server; it is safe for concurrent use.
type Router struct {
	providers []provider.Provider
	configs   map[provider.ProviderID]ProviderConfig
	retry     RetryConfig
	logger    *zap.Logger
	audit     AuditSink

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	states map[provider.ProviderID]*providerState
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithRetry overrides the transient-retry bounds.
func WithRetry(rc RetryConfig) Option {
	return func(r *Router) { r.retry = rc }
}

// WithAudit attaches an audit sink for per-attempt records.
func WithAudit(sink AuditSink) Option {
	return func(r *Router) { r.audit = sink }
}

// WithClock injects the time source and sleep function. Tests use this to
// simulate cooldowns and window boundaries without real waiting.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Router) {
		r.now = now
		r.sleep = sleep
	}
}

// NewRouter creates a router over the given providers, tried in slice order
// unless a request prefers one. Providers without a config entry get an
// unlimited budget.
func NewRouter(providers []provider.Provider, configs []ProviderConfig, opts ...Option) *Router {
	r := &Router{
		providers: providers,
		configs:   make(map[provider.ProviderID]ProviderConfig, len(configs)),
		retry:     DefaultRetry(),
		logger:    zap.NewNop(),
		now:       time.Now,
		sleep:     sleepContext,
		states:    make(map[provider.ProviderID]*providerState),
	}
	for _, cfg := range configs {
		r.configs[cfg.Name] = cfg
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Router) config(name provider.ProviderID) ProviderConfig {
	if cfg, ok := r.configs[name]; ok {
		return cfg
	}
	return ProviderConfig{Name: name}
}

func (r *Router) stateFor(name provider.ProviderID) *providerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[name]
	if !ok {
		state = &providerState{}
		r.states[name] = state
	}
	return state
}

// candidates resolves the ordered provider list for a request: the preferred
// provider first when it is configured, then the remaining providers in
// priority order.
func (r *Router) candidates(prefer provider.ProviderID) []provider.Provider {
	if prefer == "" {
		return r.providers
	}
	ordered := make([]provider.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.ID() == prefer {
			ordered = append(ordered, p)
		}
	}
	if len(ordered) == 0 {
		// Unknown preference: fall back to priority order.
		return r.providers
	}
	for _, p := range r.providers {
		if p.ID() != prefer {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Analyze runs the prompt against the first available provider. It returns
// Unavailable() when every candidate is rate-limited or failing; that is a
// normal outcome, never an error, and callers must answer with their
// rule-based fallback instead of surfacing it to the end user.
func (r *Router) Analyze(ctx context.Context, req Request) Result {
	depth := 0
	for _, p := range r.candidates(req.Prefer) {
		name := p.ID()
		cfg := r.config(name)
		depth++

		if err := r.acquire(ctx, cfg); err != nil {
			if errors.Is(err, ErrRateLimited) {
				r.logger.Warn("provider budget spent, failing over",
					zap.String("provider", string(name)), zap.Error(err))
				rateLimitedTotal.WithLabelValues(string(name)).Inc()
				r.record(ctx, name, "rate_limited", 0, err.Error())
				continue
			}
			// Context cancelled while waiting out a cooldown.
			r.logger.Warn("acquire aborted", zap.String("provider", string(name)), zap.Error(err))
			return Unavailable()
		}

		start := r.now()
		text, err := r.callWithRetry(ctx, p, req.Prompt)
		latency := r.now().Sub(start)
		if err == nil {
			requestsTotal.WithLabelValues(string(name), "success").Inc()
			callSeconds.WithLabelValues(string(name)).Observe(latency.Seconds())
			failoverDepth.Observe(float64(depth))
			r.record(ctx, name, "success", latency, "")
			return Result{Text: text, Provider: name, Available: true}
		}

		outcome := "transient"
		var fatal *provider.FatalError
		if errors.As(err, &fatal) {
			outcome = "fatal"
		}
		requestsTotal.WithLabelValues(string(name), outcome).Inc()
		r.record(ctx, name, outcome, latency, err.Error())
		r.logger.Warn("provider failed, failing over",
			zap.String("provider", string(name)), zap.String("outcome", outcome), zap.Error(err))
	}

	r.logger.Warn("all providers exhausted, caller should use rule-based analysis")
	unavailableTotal.Inc()
	return Unavailable()
}

// callWithRetry attempts one provider call, retrying transient failures with
// linear backoff (base × attempt number). Fatal errors return immediately.
// When the provider suggests its own retry delay, the larger of the two wins.
func (r *Router) callWithRetry(ctx context.Context, p provider.Provider, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		text, err := p.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var transient *provider.TransientError
		if !errors.As(err, &transient) {
			return "", err
		}
		if attempt == r.retry.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * r.retry.Base
		if suggested := provider.RetryAfter(err); suggested > wait {
			wait = suggested
		}
		r.logger.Debug("transient provider error, backing off",
			zap.String("provider", string(p.ID())),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Router) record(ctx context.Context, name provider.ProviderID, outcome string, latency time.Duration, detail string) {
	if r.audit == nil {
		return
	}
	if err := r.audit.AppendAudit(ctx, string(name), outcome, latency, detail); err != nil {
		r.logger.Warn("audit append failed", zap.Error(err))
	}
}

// Status reports the current limiter occupancy for every known provider.
func (r *Router) Status() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(r.providers))
	for _, p := range r.providers {
		name := p.ID()
		cfg := r.config(name)
		state := r.stateFor(name)

		state.mu.Lock()
		statuses = append(statuses, ProviderStatus{
			Name:          name,
			MinuteCount:   state.minuteCount,
			MinuteLimit:   cfg.RequestsPerMinute,
			DayCount:      state.dayCount,
			DayLimit:      cfg.RequestsPerDay,
			Cooldown:      cfg.Cooldown,
			LastRequestAt: state.lastRequest,
		})
		state.mu.Unlock()
	}
	return statuses
}
