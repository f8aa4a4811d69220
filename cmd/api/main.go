package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gigbook-backend/api"
	"github.com/angelmondragon/gigbook-backend/api/routes"
	"github.com/angelmondragon/gigbook-backend/internal/gigs"
	"github.com/angelmondragon/gigbook-backend/internal/paymentmethods"
	"github.com/angelmondragon/gigbook-backend/internal/profiles"
	"github.com/angelmondragon/gigbook-backend/internal/reviews"
	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/internal/users"
	stripewebhook "github.com/angelmondragon/gigbook-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/env"
	"github.com/angelmondragon/gigbook-backend/pkg/instance"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
	"github.com/angelmondragon/gigbook-backend/pkg/migrate"
	"github.com/angelmondragon/gigbook-backend/pkg/push"
	"github.com/angelmondragon/gigbook-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/gigbook-backend/pkg/stripe"
)

const webhookEventTTL = 72 * time.Hour

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
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis disabled; stats cache, idempotency and rate limits are off")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	usersRepo := users.NewRepository(dbClient.DB())
	profilesRepo := profiles.NewRepository(dbClient.DB())

	reviewParams := reviews.ServiceParams{
		Repo:              reviews.NewRepository(dbClient.DB()),
		Gigs:              gigs.NewRepository(dbClient.DB()),
		Users:             usersRepo,
		Profiles:          profilesRepo,
		TransactionRunner: dbClient,
		CacheTTL:          cfg.Reviews.StatsCacheTTL,
		Push:              push.New(cfg.Push),
		Metrics:           metrics.NewReviewMetrics(registry),
		Logger:            logg,
	}
	if redisClient != nil {
		reviewParams.Cache = redisClient
	}
	reviewService, err := reviews.NewService(reviewParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptionsRepo,
		Users:             usersRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	paymentMethodService, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		Repo:              paymentmethods.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment method service", err)
		os.Exit(1)
	}

	params := routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Reviews:        reviewService,
		Subscriptions:  subscriptionService,
		PaymentMethods: paymentMethodService,
	}
	if redisClient != nil {
		params.Redis = redisClient
		params.Store = redisClient
	}

	if cfg.Stripe.Enabled() {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Subscriptions:  subscriptionService,
			Customers:      subscriptionsRepo,
			PaymentMethods: paymentMethodService,
			StripeClient:   stripeClient,
			PriceTiers:     cfg.Stripe.PriceTiers,
			Logger:         logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		params.WebhookService = webhookService
		params.WebhookVerifier = stripeClient
		if redisClient != nil {
			guard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookEventTTL)
			if err != nil {
				logg.Error(context.Background(), "failed to create stripe webhook guard", err)
				os.Exit(1)
			}
			params.WebhookGuard = guard
		}
	} else {
		logg.Warn(context.Background(), "stripe disabled; webhook endpoint will reject events")
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(params))
	if err := api.Serve(ctx, server, logg, cfg.App.ShutdownTimeout); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
