package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const minuteWindow = time.Minute

// providerState holds the mutable counters for one provider. It is created
// lazily on first use and lives for the process lifetime; restart clears all
// counters on purpose, since the limits are per-process approximations of
// provider-side quotas.
type providerState struct {
	mu          sync.Mutex
	minuteCount int
	minuteStart time.Time
	dayCount    int
	dayStart    time.Time
	lastRequest time.Time
}

// resetWindows zeroes any counter whose window has elapsed. The minute
// window is rolling; the day counter resets at midnight in the clock's
// location. Resetting an already-reset window is a no-op.
func (s *providerState) resetWindows(now time.Time) {
	if s.minuteStart.IsZero() || now.Sub(s.minuteStart) > minuteWindow {
		s.minuteCount = 0
		s.minuteStart = now
	}
	if s.dayStart.IsZero() || !sameDay(now, s.dayStart) {
		s.dayCount = 0
		s.dayStart = now
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// acquire takes one permit for the named provider, or fails with
// ErrRateLimited when the configured window budget is spent. When the
// cooldown since the previous request has not elapsed, acquire sleeps the
// remainder; this is the only blocking point in the router. The check,
// the cooldown wait, and the counter updates happen under the provider's
// own lock, so concurrent acquires for the same provider cannot interleave
// mid-check. Acquires for different providers are independent.
func (r *Router) acquire(ctx context.Context, cfg ProviderConfig) error {
	state := r.stateFor(cfg.Name)

	state.mu.Lock()
	defer state.mu.Unlock()

	now := r.now()
	state.resetWindows(now)

	if cfg.RequestsPerMinute > 0 && state.minuteCount >= cfg.RequestsPerMinute {
		return fmt.Errorf("%s: per-minute budget of %d: %w", cfg.Name, cfg.RequestsPerMinute, ErrRateLimited)
	}
	if cfg.RequestsPerDay > 0 && state.dayCount >= cfg.RequestsPerDay {
		return fmt.Errorf("%s: per-day budget of %d: %w", cfg.Name, cfg.RequestsPerDay, ErrRateLimited)
	}

	if cfg.Cooldown > 0 && !state.lastRequest.IsZero() {
		if elapsed := now.Sub(state.lastRequest); elapsed < cfg.Cooldown {
			if err := r.sleep(ctx, cfg.Cooldown-elapsed); err != nil {
				return err
			}
			now = r.now()
			// The window may have rolled over during the wait.
			state.resetWindows(now)
		}
	}

	state.minuteCount++
	state.dayCount++
	if now.After(state.lastRequest) {
		state.lastRequest = now
	}
	return nil
}
