package config

const (
	EnvPrefix = "MEDIBOOK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "MEDIBOOK_APP_ENV"
	EnvPort         = "MEDIBOOK_APP_PORT"
	EnvLogLevel     = "MEDIBOOK_LOG_LEVEL"
	EnvDBDSN        = "MEDIBOOK_DB_DSN"
	EnvDBHost       = "MEDIBOOK_DB_HOST"
	EnvDBUser       = "MEDIBOOK_DB_USER"
	EnvDBName       = "MEDIBOOK_DB_NAME"
	EnvRedisURL     = "MEDIBOOK_REDIS_URL"
	EnvJWTSecret    = "MEDIBOOK_JWT_SECRET"
	EnvJWTIssuer    = "MEDIBOOK_JWT_ISSUER"
	EnvCartTTL      = "MEDIBOOK_CART_TTL"
	EnvCartMaxLines = "MEDIBOOK_CART_MAX_LINES"
	EnvAutoMigrate  = "MEDIBOOK_AUTO_MIGRATE"
	EnvGCPProjectID = "MEDIBOOK_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
