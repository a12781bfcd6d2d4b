package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prairiemarket/storefront-backend/api/controllers"
	"github.com/prairiemarket/storefront-backend/api/middleware"
	"github.com/prairiemarket/storefront-backend/internal/address"
	"github.com/prairiemarket/storefront-backend/internal/ratelimit"
	"github.com/prairiemarket/storefront-backend/internal/shipping"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
	pkgredis "github.com/prairiemarket/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger          *logger.Logger
	Redis           pkgredis.Pinger
	Limiter         *ratelimit.Limiter
	ShippingService shipping.Service
	AddressService  address.Service
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Liveness())
		r.Get("/ready", controllers.Readiness(deps.Redis, deps.Logger))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter, ratelimit.ScopeAPI, deps.Logger))

		r.Route("/shipping", func(r chi.Router) {
			r.With(middleware.RateLimit(deps.Limiter, ratelimit.ScopeRates, deps.Logger)).
				Post("/rates", controllers.CalculateRates(deps.ShippingService, deps.Logger))
			r.Post("/address/validate", controllers.ValidateAddress(deps.AddressService, deps.Logger))
		})
	})

	return r
}
