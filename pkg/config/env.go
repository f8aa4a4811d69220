package config

const (
	EnvPrefix = "GIGBOOK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "GIGBOOK_APP_ENV"
	EnvPort         = "GIGBOOK_APP_PORT"
	EnvLogLevel     = "GIGBOOK_LOG_LEVEL"
	EnvDBDSN        = "GIGBOOK_DB_DSN"
	EnvDBHost       = "GIGBOOK_DB_HOST"
	EnvDBUser       = "GIGBOOK_DB_USER"
	EnvDBName       = "GIGBOOK_DB_NAME"
	EnvDBPassword   = "GIGBOOK_DB_PASSWORD"
	EnvRedisURL     = "GIGBOOK_REDIS_URL"
	EnvJWTSecret    = "GIGBOOK_JWT_SECRET"
	EnvJWTIssuer    = "GIGBOOK_JWT_ISSUER"
	EnvJWTExpMins   = "GIGBOOK_JWT_EXPIRATION_MINUTES"
	EnvStripeKey    = "GIGBOOK_STRIPE_API_KEY"
	EnvStripeSecret = "GIGBOOK_STRIPE_SECRET"
	EnvStripeTiers  = "GIGBOOK_STRIPE_PRICE_TIERS"
	EnvPushEnabled  = "GIGBOOK_PUSH_ENABLED"
	EnvStatsTTL     = "GIGBOOK_REVIEWS_STATS_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
