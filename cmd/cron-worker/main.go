package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gigbook-backend/internal/backfill"
	"github.com/angelmondragon/gigbook-backend/internal/cron"
	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/internal/users"
	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/instance"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
	"github.com/angelmondragon/gigbook-backend/pkg/migrate"
	"github.com/angelmondragon/gigbook-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/gigbook-backend/pkg/stripe"
)

func main() {
	runOnce := flag.String("job", "", "run a single job by name and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := cron.NewRegistry()

	runner, err := backfill.NewRunner(dbClient.DB(), logg, metrics.NewBackfillMetrics(prometheus.DefaultRegisterer), backfill.Options{
		DryRun:    true,
		BatchSize: cfg.Backfill.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create backfill runner", err)
		os.Exit(1)
	}
	auditJob, err := cron.NewFeatureAuditJob(logg, runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create feature audit job", err)
		os.Exit(1)
	}
	registry.Register(auditJob)

	if cfg.Stripe.Enabled() {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
		subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
			Repo:              subscriptionsRepo,
			Users:             users.NewRepository(dbClient.DB()),
			TransactionRunner: dbClient,
			Logger:            logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create subscription service", err)
			os.Exit(1)
		}
		syncJob, err := cron.NewSubscriptionSyncJob(cron.SubscriptionSyncJobParams{
			Logger:        logg,
			Subscriptions: subscriptionsRepo,
			Service:       subscriptionService,
			Stripe:        stripeClient,
			PriceTiers:    cfg.Stripe.PriceTiers,
			BatchSize:     cfg.Cron.SyncBatchSize,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create subscription sync job", err)
			os.Exit(1)
		}
		registry.Register(syncJob)
	} else {
		logg.Warn(context.Background(), "stripe disabled; subscription sync job not registered")
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+lockScope(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if *runOnce != "" {
		ctx = logg.WithField(ctx, "job", *runOnce)
		logg.Info(ctx, "running single cron job")
		if err := service.RunOnce(ctx, *runOnce); err != nil {
			logg.Error(ctx, "cron job failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockScope(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
