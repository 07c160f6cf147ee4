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
	AdminAPI     AdminAPIConfig
	Econt        EcontConfig
	Sync         SyncConfig
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
	Env          string `envconfig:"PARCELFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"PARCELFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARCELFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARCELFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PARCELFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PARCELFLOW_DB_DSN"`
	Driver string `envconfig:"PARCELFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PARCELFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"PARCELFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARCELFLOW_DB_USER"`
	LegacyPassword string `envconfig:"PARCELFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARCELFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARCELFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARCELFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARCELFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARCELFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARCELFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARCELFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARCELFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"PARCELFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARCELFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARCELFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARCELFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARCELFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARCELFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARCELFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AdminAPIConfig guards the admin-only shipment operations with a static
// per-deployment token.
type AdminAPIConfig struct {
	Token string `envconfig:"PARCELFLOW_ADMIN_API_TOKEN" required:"true"`
}

// EcontConfig carries the static carrier credentials plus the sender identity
// used when registering shipments.
type EcontConfig struct {
	BaseURL  string `envconfig:"PARCELFLOW_ECONT_BASE_URL"`
	Username string `envconfig:"PARCELFLOW_ECONT_USERNAME" required:"true"`
	Password string `envconfig:"PARCELFLOW_ECONT_PASSWORD" required:"true"`

	SenderName       string `envconfig:"PARCELFLOW_ECONT_SENDER_NAME" required:"true"`
	SenderPhone      string `envconfig:"PARCELFLOW_ECONT_SENDER_PHONE" required:"true"`
	SenderOfficeCode string `envconfig:"PARCELFLOW_ECONT_SENDER_OFFICE_CODE"`
	SenderCity       string `envconfig:"PARCELFLOW_ECONT_SENDER_CITY"`
	SenderPostCode   string `envconfig:"PARCELFLOW_ECONT_SENDER_POST_CODE"`
	SenderStreet     string `envconfig:"PARCELFLOW_ECONT_SENDER_STREET"`

	Timeout time.Duration `envconfig:"PARCELFLOW_ECONT_TIMEOUT" default:"15s"`
}

// SyncConfig tunes the status-sync worker. The defaults mirror the carrier's
// documented rate limits.
type SyncConfig struct {
	Interval       time.Duration `envconfig:"PARCELFLOW_SYNC_INTERVAL" default:"30m"`
	BatchSize      int           `envconfig:"PARCELFLOW_SYNC_BATCH_SIZE" default:"50"`
	BatchDelay     time.Duration `envconfig:"PARCELFLOW_SYNC_BATCH_DELAY" default:"1s"`
	ThrottleWindow time.Duration `envconfig:"PARCELFLOW_SYNC_THROTTLE_WINDOW" default:"15m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARCELFLOW_AUTO_MIGRATE" default:"false"`
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
