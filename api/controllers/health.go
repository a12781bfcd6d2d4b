package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/prairiemarket/storefront-backend/api/responses"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
	pkgredis "github.com/prairiemarket/storefront-backend/pkg/redis"
)

// Liveness reports that the process is up.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Readiness checks optional dependencies. Redis only backs the rate limiter,
// so a failed ping downgrades the report without failing the probe.
func Readiness(redis pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := map[string]string{"status": "ok"}
		if redis != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := redis.Ping(pingCtx); err != nil {
				status["redis"] = "unavailable"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", "redis"), "health.redis_unreachable")
				}
			} else {
				status["redis"] = "ok"
			}
		}

		responses.WriteSuccess(w, status)
	}
}
