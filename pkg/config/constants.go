package config

const EnvPrefix = "STOREPULSE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:storepulse.db?cache=shared"

	// Shopify rejects larger page sizes on the REST list endpoints.
	maxShopifyPageSize = 250
)

const (
	EnvAppEnv   = "STOREPULSE_APP_ENV"
	EnvPort     = "STOREPULSE_APP_PORT"
	EnvLogLevel = "STOREPULSE_LOG_LEVEL"

	EnvDBDSN  = "STOREPULSE_DB_DSN"
	EnvDBHost = "STOREPULSE_DB_HOST"
	EnvDBUser = "STOREPULSE_DB_USER"
	EnvDBName = "STOREPULSE_DB_NAME"

	EnvRedisURL = "STOREPULSE_REDIS_URL"

	EnvJWTSecret = "STOREPULSE_JWT_SECRET"
	EnvJWTIssuer = "STOREPULSE_JWT_ISSUER"

	EnvUseSQLite = "STOREPULSE_USE_SQLITE"

	EnvShopifyPageSize = "STOREPULSE_SHOPIFY_PAGE_SIZE"

	EnvSyncLookbackMonths = "STOREPULSE_SYNC_LOOKBACK_MONTHS"
	EnvSyncCogsRatio      = "STOREPULSE_SYNC_COGS_RATIO"
	EnvSyncMarginRatio    = "STOREPULSE_SYNC_MARGIN_RATIO"
	EnvSyncConcurrency    = "STOREPULSE_SYNC_CONCURRENCY"
	EnvSyncJobTimeout     = "STOREPULSE_SYNC_JOB_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
