package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/vetapi/clinic-api/internal/infrastructure/security"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	SentryDSN string `env:"SENTRY_DSN"`

	JWT       JWTConfig
	Reset     ResetConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Mail      MailConfig
	Bootstrap BootstrapConfig

	EnableDebugRoutes bool    `env:"ENABLE_DEBUG_ROUTES, default=false"`
	AuthRateLimit     float64 `env:"AUTH_RATE_LIMIT,     default=0"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET, required"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL,  default=1h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL, default=168h"`
	Issuer     string        `env:"JWT_ISSUER,      default=clinic-api"`
}

type ResetConfig struct {
	TokenTTL    time.Duration `env:"RESET_TOKEN_TTL,    default=30m"`
	Store       string        `env:"RESET_TOKEN_STORE,  default=memory"`
	ExposeToken bool          `env:"EXPOSE_RESET_TOKEN, default=false"`
	URL         string        `env:"RESET_URL"`
}

type StoreConfig struct {
	Accounts string `env:"ACCOUNT_STORE, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clinic"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL, default=postgres://localhost:5432/clinic?sslmode=disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	Sender               string `env:"MAIL_SENDER"`
	Workers              int    `env:"MAIL_WORKERS, default=4"`
}

type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < security.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", security.MinSecretLength))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive"))
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL"))
	}
	switch c.Store.Accounts {
	case "mongo", "postgres":
	default:
		errs = append(errs, fmt.Errorf("ACCOUNT_STORE %q: want mongo or postgres", c.Store.Accounts))
	}
	switch c.Reset.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("RESET_TOKEN_STORE %q: want memory or redis", c.Reset.Store))
	}
	if c.Mail.PostmarkServerToken != "" && c.Mail.Sender == "" {
		errs = append(errs, errors.New("MAIL_SENDER is required when POSTMARK_SERVER_TOKEN is set"))
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
