package ratelimit

import (
	"context"
	"time"

	"github.com/prairiemarket/storefront-backend/pkg/config"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
)

// Scope names a traffic surface with its own throttling policy.
type Scope string

const (
	ScopeAuth   Scope = "auth"
	ScopeReview Scope = "review"
	ScopeRates  Scope = "rates"
	ScopeAPI    Scope = "api"
)

// Policy is the fixed-window configuration for one scope.
type Policy struct {
	Scope  Scope
	Window time.Duration
	Max    int
}

func (p Policy) enabled() bool {
	return p.Window > 0 && p.Max > 0
}

// Decision reports the outcome of one Allow call, with enough detail for
// the X-RateLimit response headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the seconds a denied client should wait, at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	seconds := int(d.ResetAt.Sub(now).Seconds() + 0.999)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Store is the counter backend. Hit consumes one request unit for the key
// and returns the updated count plus the window reset time. Implementations
// must be safe for concurrent use.
type Store interface {
	Hit(ctx context.Context, scope Scope, identity string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies per-scope fixed-window policies over a Store.
type Limiter struct {
	store    Store
	policies map[Scope]Policy
}

// New builds a limiter with the supplied policies.
func New(store Store, policies []Policy) *Limiter {
	byScope := make(map[Scope]Policy, len(policies))
	for _, policy := range policies {
		byScope[policy.Scope] = policy
	}
	return &Limiter{
		store:    store,
		policies: byScope,
	}
}

// PoliciesFromConfig maps the configured windows and maximums onto the four
// limiter scopes. When the limiter is disabled every policy comes back
// zeroed, which Allow treats as a pass-through.
func PoliciesFromConfig(cfg config.RateLimitConfig) []Policy {
	if !cfg.Enabled {
		return []Policy{
			{Scope: ScopeAuth}, {Scope: ScopeReview}, {Scope: ScopeRates}, {Scope: ScopeAPI},
		}
	}
	return []Policy{
		{Scope: ScopeAuth, Window: cfg.AuthWindow, Max: cfg.AuthMax},
		{Scope: ScopeReview, Window: cfg.ReviewWindow, Max: cfg.ReviewMax},
		{Scope: ScopeRates, Window: cfg.RatesWindow, Max: cfg.RatesMax},
		{Scope: ScopeAPI, Window: cfg.APIWindow, Max: cfg.APIMax},
	}
}

// Allow consumes one request unit for (scope, identity). Scopes without an
// enabled policy always pass. A store failure is surfaced as a dependency
// error so callers can fail open or closed deliberately.
func (l *Limiter) Allow(ctx context.Context, scope Scope, identity string) (Decision, error) {
	policy, ok := l.policies[scope]
	if !ok || !policy.enabled() {
		return Decision{Allowed: true}, nil
	}

	count, resetAt, err := l.store.Hit(ctx, scope, identity, policy.Window)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit store")
	}

	remaining := policy.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(policy.Max),
		Limit:     policy.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
