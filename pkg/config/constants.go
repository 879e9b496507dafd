package config

const (
	EnvPrefix = "TALLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "TALLY_APP_ENV"
	EnvPort       = "TALLY_APP_PORT"
	EnvMainDomain = "TALLY_MAIN_DOMAIN"

	EnvRedisURL               = "TALLY_REDIS_URL"
	EnvJWTSecret              = "TALLY_JWT_SECRET"
	EnvJWTIssuer              = "TALLY_JWT_ISSUER"
	EnvJWTExpMins             = "TALLY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "TALLY_REFRESH_TOKEN_TTL_MINUTES"

	EnvDBDSN  = "TALLY_DB_DSN"
	EnvDBHost = "TALLY_DB_HOST"
	EnvDBUser = "TALLY_DB_USER"
	EnvDBName = "TALLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
