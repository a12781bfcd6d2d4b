package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/prairiemarket/storefront-backend/api/routes"
	"github.com/prairiemarket/storefront-backend/internal/address"
	"github.com/prairiemarket/storefront-backend/internal/ratelimit"
	"github.com/prairiemarket/storefront-backend/internal/shipping"
	"github.com/prairiemarket/storefront-backend/pkg/config"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
	"github.com/prairiemarket/storefront-backend/pkg/metrics"
	pkgredis "github.com/prairiemarket/storefront-backend/pkg/redis"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shippingMetrics := metrics.NewShippingMetrics(registry)

	uspsOpts := []usps.Option{usps.WithTimeout(cfg.USPS.CallTimeout)}
	if cfg.USPS.IsProduction() {
		uspsOpts = append(uspsOpts, usps.WithProduction())
	}
	carrier, err := usps.NewClient(cfg.USPS.ClientID, cfg.USPS.ClientSecret, uspsOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to build carrier client", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var redisClient *pkgredis.Client
	var redisPinger pkgredis.Pinger
	var limiterStore ratelimit.Store
	if cfg.Redis.Configured() {
		redisClient, err = pkgredis.New(runCtx, cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisPinger = redisClient
		limiterStore = ratelimit.NewRedisStore(redisClient)
	} else {
		memory := ratelimit.NewMemoryStore()
		memory.StartSweep(runCtx, cfg.RateLimit.SweepInterval)
		limiterStore = memory
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(limiterStore, ratelimit.PoliciesFromConfig(cfg.RateLimit))
	}

	rateCache := shipping.NewRateCache(cfg.Shipping.CacheTTL)
	shippingService := shipping.NewService(carrier, rateCache, logg, shippingMetrics, cfg.Shipping, cfg.USPS.CallTimeout)
	addressService := address.NewService(carrier)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"carrier_env": cfg.USPS.Environment,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:          logg,
			Redis:           redisPinger,
			Limiter:         limiter,
			ShippingService: shippingService,
			AddressService:  addressService,
			MetricsGatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
