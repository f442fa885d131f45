package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "VENDGB"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "VENDGB_APP_ENV"
	EnvPort     = "VENDGB_APP_PORT"
	EnvDBDSN    = "VENDGB_DB_DSN"
	EnvDBHost   = "VENDGB_DB_HOST"
	EnvDBUser   = "VENDGB_DB_USER"
	EnvDBName   = "VENDGB_DB_NAME"
	EnvRedisURL = "VENDGB_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"VENDGB_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDGB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDGB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDGB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDGB_DB_DSN"`
	Driver string `envconfig:"VENDGB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDGB_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDGB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDGB_DB_USER"`
	LegacyPassword string `envconfig:"VENDGB_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDGB_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDGB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDGB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDGB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDGB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDGB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected (local dev).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDGB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDGB_REDIS_ADDR"`
	Password     string        `envconfig:"VENDGB_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDGB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDGB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDGB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDGB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDGB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDGB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	SecretKey      string        `envconfig:"VENDGB_STRIPE_SECRET_KEY"`
	PublishableKey string        `envconfig:"VENDGB_STRIPE_PUBLISHABLE_KEY"`
	WebhookSecret  string        `envconfig:"VENDGB_STRIPE_WEBHOOK_SECRET"`
	Currency       string        `envconfig:"VENDGB_STRIPE_CURRENCY" default:"gbp"`
	Env            string        `envconfig:"VENDGB_STRIPE_ENV" default:"test"`
	WebhookGuard   time.Duration `envconfig:"VENDGB_STRIPE_WEBHOOK_GUARD_TTL" default:"720h"`
}

// Configured reports whether payments can be taken at all. The server still
// boots without a key; payment endpoints answer 503 until one is supplied.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.SecretKey) != ""
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDGB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:vendgb.db?cache=shared"
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
