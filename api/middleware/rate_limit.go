package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prairiemarket/storefront-backend/api/responses"
	"github.com/prairiemarket/storefront-backend/internal/ratelimit"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
)

// RateLimit gates a route group behind the limiter scope, keyed by client IP.
// Quota headers go out on every limited response; denials get a 429 with a
// retry hint. Store failures fail open so a limiter outage never takes the
// storefront down with it.
func RateLimit(limiter *ratelimit.Limiter, scope ratelimit.Scope, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := clientIP(r)

			decision, err := limiter.Allow(ctx, scope, identity)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "rate_limit.store_error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if decision.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retryAfter := decision.RetryAfter(time.Now())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":       string(scope),
						"ip":          identity,
						"limit":       decision.Limit,
						"retry_after": retryAfter,
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}

				err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded").
					WithDetails(map[string]any{"retryAfter": retryAfter})
				responses.WriteError(ctx, nil, w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
