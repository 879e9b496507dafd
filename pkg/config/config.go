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
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Paystack      PaystackConfig
	Gemini        GeminiConfig
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
	Env          string `envconfig:"TALLY_APP_ENV" required:"true"`
	Port         string `envconfig:"TALLY_APP_PORT" required:"true"`
	MainDomain   string `envconfig:"TALLY_MAIN_DOMAIN" required:"true"`
	LogLevel     string `envconfig:"TALLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TALLY_DB_DSN"`
	Driver string `envconfig:"TALLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TALLY_DB_HOST"`
	LegacyPort     int    `envconfig:"TALLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALLY_DB_USER"`
	LegacyPassword string `envconfig:"TALLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALLY_REDIS_URL" required:"true"`
	Password     string        `envconfig:"TALLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TALLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TALLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TALLY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TALLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TALLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TALLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TALLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TALLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TALLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TALLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TALLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TALLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TALLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TALLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TALLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALLY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALLY_AUTO_MIGRATE" default:"false"`
}

type PaystackConfig struct {
	SecretKey string `envconfig:"TALLY_PAYSTACK_SECRET_KEY"`
	BaseURL   string `envconfig:"TALLY_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
}

type GeminiConfig struct {
	APIKey  string `envconfig:"TALLY_GEMINI_API_KEY"`
	Model   string `envconfig:"TALLY_GEMINI_MODEL" default:"gemini-2.0-flash"`
	BaseURL string `envconfig:"TALLY_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
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
