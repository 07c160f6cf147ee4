package config

// EnvPrefix is passed to envconfig; individual fields carry fully qualified
// env tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv        = "PARCELFLOW_APP_ENV"
	EnvPort          = "PARCELFLOW_APP_PORT"
	EnvDBDSN         = "PARCELFLOW_DB_DSN"
	EnvDBHost        = "PARCELFLOW_DB_HOST"
	EnvDBUser        = "PARCELFLOW_DB_USER"
	EnvDBName        = "PARCELFLOW_DB_NAME"
	EnvRedisURL      = "PARCELFLOW_REDIS_URL"
	EnvAdminToken    = "PARCELFLOW_ADMIN_API_TOKEN"
	EnvEcontUsername = "PARCELFLOW_ECONT_USERNAME"
	EnvEcontPassword = "PARCELFLOW_ECONT_PASSWORD"
	EnvEcontSender   = "PARCELFLOW_ECONT_SENDER_NAME"
	EnvEcontPhone    = "PARCELFLOW_ECONT_SENDER_PHONE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
