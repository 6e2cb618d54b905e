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
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Custody      CustodyConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STOCKYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKYARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKYARD_DB_DSN"`
	Driver string `envconfig:"STOCKYARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKYARD_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKYARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKYARD_DB_USER"`
	LegacyPassword string `envconfig:"STOCKYARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKYARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKYARD_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKYARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKYARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKYARD_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKYARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKYARD_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"STOCKYARD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKYARD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STOCKYARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKYARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"STOCKYARD_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"STOCKYARD_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	PayoutsTopic             string `envconfig:"STOCKYARD_PUBSUB_PAYOUTS_TOPIC" required:"true"`
	PayoutsSubscription      string `envconfig:"STOCKYARD_PUBSUB_PAYOUTS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"STOCKYARD_PUBSUB_NOTIFICATION_TOPIC" default:"sy-notification-events"`
	NotificationSubscription string `envconfig:"STOCKYARD_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKYARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKYARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKYARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"STOCKYARD_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"STOCKYARD_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STOCKYARD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CustodyConfig tunes payout-release behavior for held funds.
type CustodyConfig struct {
	ProtectionWindowHours int    `envconfig:"STOCKYARD_CUSTODY_PROTECTION_WINDOW_HOURS" default:"72"`
	PlatformFeePercent    string `envconfig:"STOCKYARD_CUSTODY_PLATFORM_FEE_PERCENT" default:"5"`
	HighValueThresholdUSD string `envconfig:"STOCKYARD_CUSTODY_HIGH_VALUE_THRESHOLD_USD" default:"5000"`
	SweepBatchSize        int    `envconfig:"STOCKYARD_CUSTODY_SWEEP_BATCH_SIZE" default:"200"`
}

// ProtectionWindow returns the buyer protection window as a duration.
func (c CustodyConfig) ProtectionWindow() time.Duration {
	if c.ProtectionWindowHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(c.ProtectionWindowHours) * time.Hour
}

type CheckoutConfig struct {
	PaymentTTLMinutes int `envconfig:"STOCKYARD_CHECKOUT_PAYMENT_TTL_MINUTES" default:"60"`
	ExpiryBatchSize   int `envconfig:"STOCKYARD_CHECKOUT_EXPIRY_BATCH_SIZE" default:"100"`
	WireTTLMinutes    int `envconfig:"STOCKYARD_CHECKOUT_WIRE_TTL_MINUTES" default:"4320"`
}

// PaymentTTL is how long an unpaid order keeps its reservation.
func (c CheckoutConfig) PaymentTTL() time.Duration {
	if c.PaymentTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.PaymentTTLMinutes) * time.Minute
}

// WireTTL is the extended window for bank-transfer payment methods.
func (c CheckoutConfig) WireTTL() time.Duration {
	if c.WireTTLMinutes <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(c.WireTTLMinutes) * time.Minute
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
