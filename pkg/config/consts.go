package config

const (
	// EnvPrefix is applied by envconfig to unannotated fields.
	EnvPrefix = "STOCKYARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "STOCKYARD_APP_ENV"
	EnvPort       = "STOCKYARD_APP_PORT"
	EnvDBDSN      = "STOCKYARD_DB_DSN"
	EnvDBHost     = "STOCKYARD_DB_HOST"
	EnvDBUser     = "STOCKYARD_DB_USER"
	EnvDBName     = "STOCKYARD_DB_NAME"
	EnvRedisURL   = "STOCKYARD_REDIS_URL"
	EnvJWTSecret  = "STOCKYARD_JWT_SECRET"
	EnvJWTIssuer  = "STOCKYARD_JWT_ISSUER"
	EnvJWTExpMins = "STOCKYARD_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "STOCKYARD_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic  = "STOCKYARD_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub    = "STOCKYARD_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubPayoutsTopic = "STOCKYARD_PUBSUB_PAYOUTS_TOPIC"
	EnvPubSubPayoutsSub   = "STOCKYARD_PUBSUB_PAYOUTS_SUBSCRIPTION"
	EnvPubSubNotifSub     = "STOCKYARD_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
