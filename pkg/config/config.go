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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDIBOOK_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDIBOOK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEDIBOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIBOOK_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the portal origins allowed to call the API.
	CORSOrigins []string `envconfig:"MEDIBOOK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MEDIBOOK_DB_DSN"`

	LegacyHost     string `envconfig:"MEDIBOOK_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDIBOOK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDIBOOK_DB_USER"`
	LegacyPassword string `envconfig:"MEDIBOOK_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDIBOOK_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDIBOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDIBOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDIBOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDIBOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDIBOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDIBOOK_REDIS_URL"`
	Address      string        `envconfig:"MEDIBOOK_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIBOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIBOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIBOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIBOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIBOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIBOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the auth backend.
type JWTConfig struct {
	Secret string `envconfig:"MEDIBOOK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MEDIBOOK_JWT_ISSUER" required:"true"`
}

type CartConfig struct {
	TTL      time.Duration `envconfig:"MEDIBOOK_CART_TTL" default:"168h"`
	MaxLines int           `envconfig:"MEDIBOOK_CART_MAX_LINES" default:"100"`
	// IdempotencyTTL bounds how long checkout responses are replayed.
	IdempotencyTTL time.Duration `envconfig:"MEDIBOOK_CART_IDEMPOTENCY_TTL" default:"24h"`
}

func (c CartConfig) validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("%s must not be negative", EnvCartTTL)
	}
	if c.MaxLines <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartMaxLines)
	}
	return nil
}

// GCPConfig is only needed by binaries that talk to Pub/Sub.
type GCPConfig struct {
	ProjectID string `envconfig:"MEDIBOOK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	// CheckoutTopic receives checkout_submitted events for the payment service.
	CheckoutTopic string `envconfig:"MEDIBOOK_PUBSUB_CHECKOUT_TOPIC" default:"checkout-submissions"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEDIBOOK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEDIBOOK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEDIBOOK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDIBOOK_AUTO_MIGRATE" default:"false"`
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
