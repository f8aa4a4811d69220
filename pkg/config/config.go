package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Push         PushConfig
	Reviews      ReviewsConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
	Backfill     BackfillConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIGBOOK_APP_ENV" required:"true"`
	Port         string `envconfig:"GIGBOOK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIGBOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIGBOOK_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GIGBOOK_LOG_FORMAT"`
	// CORSOrigins is a comma separated allow list; empty falls back to local dev origins.
	CORSOrigins     []string      `envconfig:"GIGBOOK_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"GIGBOOK_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GIGBOOK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GIGBOOK_DB_DSN"`
	Driver string `envconfig:"GIGBOOK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIGBOOK_DB_HOST"`
	LegacyPort     int    `envconfig:"GIGBOOK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIGBOOK_DB_USER"`
	LegacyPassword string `envconfig:"GIGBOOK_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIGBOOK_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIGBOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIGBOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIGBOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIGBOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIGBOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GIGBOOK_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIGBOOK_REDIS_URL"`
	Address      string        `envconfig:"GIGBOOK_REDIS_ADDR"`
	Password     string        `envconfig:"GIGBOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIGBOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIGBOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIGBOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIGBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIGBOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIGBOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
	// Namespace prefixes every key so environments can share an instance.
	Namespace string `envconfig:"GIGBOOK_REDIS_NAMESPACE" default:"gb"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"GIGBOOK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIGBOOK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIGBOOK_JWT_EXPIRATION_MINUTES" default:"60"`
	// Leeway tolerates clock skew between the issuer and this service.
	Leeway time.Duration `envconfig:"GIGBOOK_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GIGBOOK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GIGBOOK_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GIGBOOK_STRIPE_API_KEY"`
	Secret string `envconfig:"GIGBOOK_STRIPE_SECRET"`
	Env    string `envconfig:"GIGBOOK_STRIPE_ENV" default:"test"`
	// WebhookTolerance bounds how old a signed webhook timestamp may be.
	WebhookTolerance time.Duration `envconfig:"GIGBOOK_STRIPE_WEBHOOK_TOLERANCE" default:"5m"`
	// PriceTiers maps Stripe price ids to subscription tiers, e.g. "price_123:pro,price_456:premium".
	PriceTiers map[string]string `envconfig:"GIGBOOK_STRIPE_PRICE_TIERS"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether Stripe credentials are present.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type PushConfig struct {
	Enabled     bool   `envconfig:"GIGBOOK_PUSH_ENABLED" default:"false"`
	AccessToken string `envconfig:"GIGBOOK_PUSH_EXPO_ACCESS_TOKEN"`
}

type ReviewsConfig struct {
	StatsCacheTTL time.Duration `envconfig:"GIGBOOK_REVIEWS_STATS_CACHE_TTL" default:"5m"`
	DefaultLimit  int           `envconfig:"GIGBOOK_REVIEWS_DEFAULT_LIMIT" default:"10"`
}

type RateLimitConfig struct {
	Window           time.Duration `envconfig:"GIGBOOK_RATE_LIMIT_WINDOW" default:"1h"`
	ReviewIPLimit    int           `envconfig:"GIGBOOK_RATE_LIMIT_REVIEW_IP" default:"30"`
	ReviewUserLimit  int           `envconfig:"GIGBOOK_RATE_LIMIT_REVIEW_USER" default:"10"`
	HelpfulUserLimit int           `envconfig:"GIGBOOK_RATE_LIMIT_HELPFUL_USER" default:"120"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"GIGBOOK_CRON_INTERVAL" default:"1h"`
	SyncBatchSize int           `envconfig:"GIGBOOK_CRON_SUBSCRIPTION_SYNC_BATCH" default:"250"`
}

type BackfillConfig struct {
	BatchSize int `envconfig:"GIGBOOK_BACKFILL_BATCH_SIZE" default:"500"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
