package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gigbook-backend/api/controllers"
	pmcontrollers "github.com/angelmondragon/gigbook-backend/api/controllers/paymentmethods"
	reviewcontrollers "github.com/angelmondragon/gigbook-backend/api/controllers/reviews"
	subscriptioncontrollers "github.com/angelmondragon/gigbook-backend/api/controllers/subscriptions"
	webhookcontrollers "github.com/angelmondragon/gigbook-backend/api/controllers/webhooks"
	"github.com/angelmondragon/gigbook-backend/api/middleware"
	"github.com/angelmondragon/gigbook-backend/internal/paymentmethods"
	"github.com/angelmondragon/gigbook-backend/internal/reviews"
	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/gigbook-backend/pkg/redis"
)

// Store backs idempotency replay and rate limiting.
type Store interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

type WebhookVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

type WebhookGuard = webhookcontrollers.StripeWebhookGuard

// RouterParams lists everything the HTTP surface depends on. Leave an
// interface field unset (not a typed nil pointer) when the dependency is
// disabled.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger
	Store Store

	MetricsHandler http.Handler
	HTTPMetrics    *metrics.HTTPMetrics

	Reviews        reviews.Service
	Subscriptions  subscriptions.Service
	PaymentMethods paymentmethods.Service

	WebhookService  webhookcontrollers.StripeWebhookService
	WebhookVerifier WebhookVerifier
	WebhookGuard    WebhookGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	reviewPolicy := middleware.NewRateLimitPolicy(
		"reviews",
		cfg.RateLimit.Window,
		cfg.RateLimit.ReviewIPLimit,
		cfg.RateLimit.ReviewUserLimit,
	)
	helpfulPolicy := middleware.NewRateLimitPolicy(
		"helpful",
		cfg.RateLimit.Window,
		0,
		cfg.RateLimit.HelpfulUserLimit,
	)

	var (
		idemStore pkgredis.IdempotencyStore
		rateStore middleware.RateLimiterStore
	)
	if p.Store != nil {
		idemStore = p.Store
		rateStore = p.Store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(p)))
	})
	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.Ping("public"))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookService, p.WebhookVerifier, p.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.Ping("private"))

		r.Route("/reviews", func(r chi.Router) {
			r.With(middleware.RateLimit(reviewPolicy, rateStore, logg)).Post("/", reviewcontrollers.Create(p.Reviews, logg))
			r.Get("/me", reviewcontrollers.ListMine(p.Reviews, logg))
			r.Get("/{reviewId}", reviewcontrollers.Get(p.Reviews, logg))
			r.With(middleware.RateLimit(reviewPolicy, rateStore, logg)).Post("/{reviewId}/response", reviewcontrollers.Respond(p.Reviews, logg))
			r.With(middleware.RateLimit(helpfulPolicy, rateStore, logg)).Post("/{reviewId}/helpful", reviewcontrollers.ToggleHelpful(p.Reviews, logg))
		})

		r.Route("/artists/{artistId}/reviews", func(r chi.Router) {
			r.Get("/", reviewcontrollers.ListForTarget(p.Reviews, enums.ReviewTargetArtist, "artistId", logg))
			r.Get("/stats", reviewcontrollers.StatsForTarget(p.Reviews, enums.ReviewTargetArtist, "artistId", logg))
		})
		r.Route("/venues/{venueId}/reviews", func(r chi.Router) {
			r.Get("/", reviewcontrollers.ListForTarget(p.Reviews, enums.ReviewTargetVenue, "venueId", logg))
			r.Get("/stats", reviewcontrollers.StatsForTarget(p.Reviews, enums.ReviewTargetVenue, "venueId", logg))
		})

		r.Route("/subscriptions/me", func(r chi.Router) {
			r.Get("/", subscriptioncontrollers.Fetch(p.Subscriptions, logg))
			r.Get("/features", subscriptioncontrollers.Features(p.Subscriptions, logg))
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", pmcontrollers.List(p.PaymentMethods, logg))
			r.Post("/", pmcontrollers.Add(p.PaymentMethods, logg))
			r.Post("/{paymentMethodId}/default", pmcontrollers.SetDefault(p.PaymentMethods, logg))
			r.Delete("/{paymentMethodId}", pmcontrollers.Deactivate(p.PaymentMethods, logg))
		})
	})

	return r
}

func readinessDeps(p RouterParams) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["db"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	return deps
}
