package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Address       AddressConfig
	Notifications NotificationsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	AMQP          AMQPConfig
	Outbox        OutboxConfig
	Maintenance   MaintenanceConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadJWT reads only the admin token settings, for tools that never open
// the database.
func LoadJWT() (JWTConfig, error) {
	var cfg JWTConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return JWTConfig{}, fmt.Errorf("parsing jwt config: %w", err)
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// RedisConfig is optional; an empty URL and address disables idempotency,
// rate limiting and the address cache.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	CouponPolicy    string        `envconfig:"STOREFRONT_CHECKOUT_COUPON_POLICY" default:"drop"`
	RateLimitWindow time.Duration `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT" default:"10"`
}

// FailOnInvalidCoupon reports whether a coupon that became invalid between
// apply and submit aborts the checkout instead of being dropped.
func (c CheckoutConfig) FailOnInvalidCoupon() bool {
	return strings.EqualFold(strings.TrimSpace(c.CouponPolicy), CouponPolicyFail)
}

func (c CheckoutConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.CouponPolicy)) {
	case "", CouponPolicyDrop, CouponPolicyFail:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s|%s, got %q", EnvCheckoutCouponPolicy, CouponPolicyDrop, CouponPolicyFail, c.CouponPolicy)
	}
}

type AddressConfig struct {
	ViaCEPBaseURL   string        `envconfig:"STOREFRONT_VIACEP_BASE_URL" default:"https://viacep.com.br"`
	Timeout         time.Duration `envconfig:"STOREFRONT_VIACEP_TIMEOUT" default:"10s"`
	CacheTTL        time.Duration `envconfig:"STOREFRONT_ADDRESS_CACHE_TTL" default:"24h"`
	RateLimitWindow time.Duration `envconfig:"STOREFRONT_ADDRESS_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"STOREFRONT_ADDRESS_RATE_LIMIT" default:"30"`
}

type NotificationsConfig struct {
	Driver string `envconfig:"STOREFRONT_NOTIFIER_DRIVER" default:"log"`
}

func (n NotificationsConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(n.Driver))
	if driver == "" {
		return NotifierDriverLog
	}
	return driver
}

func (n NotificationsConfig) validate(cfg Config) error {
	switch n.NormalizedDriver() {
	case NotifierDriverLog:
		return nil
	case NotifierDriverPubSub:
		if strings.TrimSpace(cfg.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for the pubsub notifier", EnvGCPProjectID)
		}
		return nil
	case NotifierDriverAMQP:
		if strings.TrimSpace(cfg.AMQP.URL) == "" {
			return fmt.Errorf("%s is required for the amqp notifier", EnvAMQPURL)
		}
		return nil
	default:
		return fmt.Errorf("%s must be one of log|pubsub|amqp, got %q", EnvNotifierDriver, n.Driver)
	}
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic       string `envconfig:"STOREFRONT_PUBSUB_ORDER_EVENTS_TOPIC" default:"storefront-order-events"`
	OrderConfirmationTopic string `envconfig:"STOREFRONT_PUBSUB_ORDER_CONFIRMATION_TOPIC" default:"storefront-order-confirmations"`
}

type AMQPConfig struct {
	URL      string `envconfig:"STOREFRONT_AMQP_URL"`
	Exchange string `envconfig:"STOREFRONT_AMQP_EXCHANGE" default:"storefront.orders"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker. Retention windows are in days.
// Abandoned carts are kept unless CartRetentionDays is set above zero.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"STOREFRONT_MAINTENANCE_INTERVAL" default:"1h"`
	CartRetentionDays   int           `envconfig:"STOREFRONT_CART_RETENTION_DAYS" default:"0"`
	OutboxRetentionDays int           `envconfig:"STOREFRONT_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
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
