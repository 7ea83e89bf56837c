package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Shopify      ShopifyConfig
	Sync         SyncConfig
	Cache        CacheConfig
	Security     SecurityConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := multierr.Combine(
		cfg.DB.ensureDSN(),
		cfg.Shopify.validate(),
		cfg.Sync.validate(),
	); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREPULSE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREPULSE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREPULSE_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for dashboard clients.
	CORSOrigins []string `envconfig:"STOREPULSE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREPULSE_DB_DSN"`
	Driver string `envconfig:"STOREPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREPULSE_DB_USER"`
	LegacyPassword string `envconfig:"STOREPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREPULSE_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"STOREPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"STOREPULSE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREPULSE_JWT_ISSUER" required:"true"`
	// ExpirationMinutes bounds tokens minted by local tooling; the API only verifies.
	ExpirationMinutes int `envconfig:"STOREPULSE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREPULSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREPULSE_AUTO_MIGRATE" default:"false"`
}

// ShopifyConfig tunes the Admin API client shared by every store.
type ShopifyConfig struct {
	APIVersion        string        `envconfig:"STOREPULSE_SHOPIFY_API_VERSION" default:"2024-01"`
	BaseURL           string        `envconfig:"STOREPULSE_SHOPIFY_BASE_URL"`
	PageSize          int           `envconfig:"STOREPULSE_SHOPIFY_PAGE_SIZE" default:"250"`
	RequestsPerSecond float64       `envconfig:"STOREPULSE_SHOPIFY_REQUESTS_PER_SECOND" default:"2"`
	Burst             int           `envconfig:"STOREPULSE_SHOPIFY_BURST" default:"4"`
	Timeout           time.Duration `envconfig:"STOREPULSE_SHOPIFY_TIMEOUT" default:"30s"`
	MaxRetries        uint64        `envconfig:"STOREPULSE_SHOPIFY_MAX_RETRIES" default:"4"`
	RetryBaseDelay    time.Duration `envconfig:"STOREPULSE_SHOPIFY_RETRY_BASE_DELAY" default:"500ms"`
}

func (s ShopifyConfig) validate() error {
	if s.PageSize < 1 || s.PageSize > maxShopifyPageSize {
		return fmt.Errorf("%s must be between 1 and %d", EnvShopifyPageSize, maxShopifyPageSize)
	}
	return nil
}

type SyncConfig struct {
	LookbackMonths int             `envconfig:"STOREPULSE_SYNC_LOOKBACK_MONTHS" default:"6"`
	CogsRatio      decimal.Decimal `envconfig:"STOREPULSE_SYNC_COGS_RATIO" default:"0.34"`
	MarginRatio    decimal.Decimal `envconfig:"STOREPULSE_SYNC_MARGIN_RATIO" default:"0.66"`
	Concurrency    int             `envconfig:"STOREPULSE_SYNC_CONCURRENCY" default:"4"`
	ResyncInterval time.Duration   `envconfig:"STOREPULSE_SYNC_RESYNC_INTERVAL" default:"6h"`
	StaleAfter     time.Duration   `envconfig:"STOREPULSE_SYNC_STALE_AFTER" default:"2h"`
	JobTimeout     time.Duration   `envconfig:"STOREPULSE_SYNC_JOB_TIMEOUT" default:"1h"`
	// TriggerLimit caps manual sync triggers per store inside TriggerWindow.
	TriggerLimit  int           `envconfig:"STOREPULSE_SYNC_TRIGGER_LIMIT" default:"6"`
	TriggerWindow time.Duration `envconfig:"STOREPULSE_SYNC_TRIGGER_WINDOW" default:"1h"`
}

func (s SyncConfig) validate() error {
	var err error
	if s.LookbackMonths <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvSyncLookbackMonths))
	}
	if !isRatio(s.CogsRatio) {
		err = multierr.Append(err, fmt.Errorf("%s must be between 0 and 1", EnvSyncCogsRatio))
	}
	if !isRatio(s.MarginRatio) {
		err = multierr.Append(err, fmt.Errorf("%s must be between 0 and 1", EnvSyncMarginRatio))
	}
	if s.Concurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvSyncConcurrency))
	}
	if s.JobTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvSyncJobTimeout))
	}
	return err
}

func isRatio(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// SecurityConfig holds the key that seals shop access tokens at rest. Tokens are
// stored in plain text when it is empty.
type SecurityConfig struct {
	TokenKey string `envconfig:"STOREPULSE_TOKEN_KEY"`
}

type CacheConfig struct {
	MetricsTTL time.Duration `envconfig:"STOREPULSE_CACHE_METRICS_TTL" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
