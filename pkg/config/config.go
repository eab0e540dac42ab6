package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "proxycart"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PROXYCART_DB_DSN"
	EnvDBHost = "PROXYCART_DB_HOST"
	EnvDBUser = "PROXYCART_DB_USER"
	EnvDBName = "PROXYCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Payments     PaymentsConfig
	Fulfillment  FulfillmentConfig
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
	Env          string `envconfig:"PROXYCART_APP_ENV" required:"true"`
	Port         string `envconfig:"PROXYCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PROXYCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROXYCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROXYCART_DB_DSN"`
	Driver string `envconfig:"PROXYCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROXYCART_DB_HOST"`
	LegacyPort     int    `envconfig:"PROXYCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROXYCART_DB_USER"`
	LegacyPassword string `envconfig:"PROXYCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROXYCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROXYCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROXYCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROXYCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROXYCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROXYCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROXYCART_REDIS_URL"`
	Address      string        `envconfig:"PROXYCART_REDIS_ADDR"`
	Password     string        `envconfig:"PROXYCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROXYCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROXYCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROXYCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROXYCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROXYCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROXYCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROXYCART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PROXYCART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROXYCART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"PROXYCART_PUBSUB_ORDER_EVENTS_TOPIC" default:"proxycart-order-events"`
	CustomerEventsTopic     string `envconfig:"PROXYCART_PUBSUB_CUSTOMER_EVENTS_TOPIC" default:"proxycart-customer-events"`
	OrderEventsSubscription string `envconfig:"PROXYCART_PUBSUB_ORDER_EVENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROXYCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROXYCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROXYCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PaymentsConfig controls payment dispatch defaults.
type PaymentsConfig struct {
	DefaultKind    string        `envconfig:"PROXYCART_ORDER_PAYMENT_KIND" default:"manual"`
	GatewayTimeout time.Duration `envconfig:"PROXYCART_PAYMENT_GATEWAY_TIMEOUT" default:"15s"`
}

// FulfillmentConfig controls fulfillment dispatch defaults.
type FulfillmentConfig struct {
	DefaultKind     string        `envconfig:"PROXYCART_ORDER_FULFILLMENT_KIND" default:"manual"`
	ProviderTimeout time.Duration `envconfig:"PROXYCART_FULFILLMENT_PROVIDER_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROXYCART_AUTO_MIGRATE" default:"false"`
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
