package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CouponPolicyDrop = "drop"
	CouponPolicyFail = "fail"
)

const (
	NotifierDriverLog    = "log"
	NotifierDriverPubSub = "pubsub"
	NotifierDriverAMQP   = "amqp"
)

const (
	EnvAppEnv               = "STOREFRONT_APP_ENV"
	EnvPort                 = "STOREFRONT_APP_PORT"
	EnvLogLevel             = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat            = "STOREFRONT_LOG_FORMAT"
	EnvDBDSN                = "STOREFRONT_DB_DSN"
	EnvDBHost               = "STOREFRONT_DB_HOST"
	EnvDBPort               = "STOREFRONT_DB_PORT"
	EnvDBUser               = "STOREFRONT_DB_USER"
	EnvDBPassword           = "STOREFRONT_DB_PASSWORD"
	EnvDBName               = "STOREFRONT_DB_NAME"
	EnvRedisURL             = "STOREFRONT_REDIS_URL"
	EnvJWTSecret            = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer            = "STOREFRONT_JWT_ISSUER"
	EnvCheckoutCouponPolicy = "STOREFRONT_CHECKOUT_COUPON_POLICY"
	EnvNotifierDriver       = "STOREFRONT_NOTIFIER_DRIVER"
	EnvGCPProjectID         = "STOREFRONT_GCP_PROJECT_ID"
	EnvAMQPURL              = "STOREFRONT_AMQP_URL"
	EnvCORSAllowedOrigins   = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
