package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
	EnvStaging     = "staging"

	StoreDriverFile  = "file"
	StoreDriverMongo = "mongo"

	minSecretLength = 32
)

// defaultSecrets are documented placeholder secrets that must never sign tokens in production.
var defaultSecrets = []string{
	"your_default_secret_key",
	"change-me-to-a-long-random-secret-value",
	"secretKey",
}

// AuthServiceConfig holds every setting of the auth service.
type AuthServiceConfig struct {
	Environment     string        `env:"APP_ENV"          envDefault:"development"`
	Port            int           `env:"PORT"             envDefault:"5000"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envDefault:"http://localhost:3000,http://localhost:5173,http://127.0.0.1:5173" envSeparator:","`

	Token     TokenConfig     `envPrefix:""`
	RateLimit RateLimitConfig `envPrefix:""`
	Store     StoreConfig     `envPrefix:""`
	Password  PasswordConfig  `envPrefix:""`
	Payment   PaymentConfig   `envPrefix:""`
	Discovery DiscoveryConfig `envPrefix:""`

	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"15m"`
}

type TokenConfig struct {
	Secret   string        `env:"JWT_SECRET,required"`
	Issuer   string        `env:"JWT_ISSUER"   envDefault:"vivah-auth"`
	Audience string        `env:"JWT_AUDIENCE" envDefault:"vivah-booking"`
	TTL      time.Duration `env:"TOKEN_TTL"    envDefault:"1h"`
}

type RateLimitConfig struct {
	AuthMax    int           `env:"AUTH_RATE_LIMIT_MAX"    envDefault:"5"`
	AuthWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
	APIMax     int           `env:"API_RATE_LIMIT_MAX"     envDefault:"60"`
	APIWindow  time.Duration `env:"API_RATE_LIMIT_WINDOW"  envDefault:"1m"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER"   envDefault:"file"`
	DataDir       string `env:"DATA_DIR"       envDefault:"./data"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"vivah"`
}

type PasswordConfig struct {
	TimeCost    uint32 `env:"ARGON2_TIME_COST"    envDefault:"3"`
	MemoryCost  uint32 `env:"ARGON2_MEMORY_COST"  envDefault:"65536"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM"  envDefault:"2"`
}

type PaymentConfig struct {
	Delay time.Duration `env:"PAYMENT_DELAY" envDefault:"1s"`
}

type DiscoveryConfig struct {
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`
	ConsulAddr     string `env:"CONSUL_ADDR"`
	ServiceName    string `env:"SERVICE_NAME"    envDefault:"vivah-auth-service"`
	ServiceAddress string `env:"SERVICE_ADDRESS" envDefault:"127.0.0.1"`
}

// NewAuthServiceConfig parses the environment and validates the result.
func NewAuthServiceConfig() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether internal error detail may be shown to clients.
func (c *AuthServiceConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks the configuration and reports every problem at once.
func (c *AuthServiceConfig) Validate() error {
	var errs []error

	if !slices.Contains([]string{EnvDevelopment, EnvProduction, EnvTest, EnvStaging}, c.Environment) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of development, production, test, staging, got %q", c.Environment))
	}
	if c.Port <= 0 {
		errs = append(errs, errors.New("PORT must be positive"))
	}

	if len(c.Token.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minSecretLength, len(c.Token.Secret)))
	}
	if c.Environment == EnvProduction && slices.Contains(defaultSecrets, c.Token.Secret) {
		errs = append(errs, errors.New("JWT_SECRET cannot be a default value in production"))
	}
	if c.Token.Issuer == "" || c.Token.Audience == "" {
		errs = append(errs, errors.New("JWT_ISSUER and JWT_AUDIENCE must not be empty"))
	}
	if c.Token.TTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.Payment.Delay < 0 {
		errs = append(errs, errors.New("PAYMENT_DELAY must not be negative"))
	}

	if c.RateLimit.AuthMax <= 0 || c.RateLimit.AuthWindow <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.APIMax <= 0 || c.RateLimit.APIWindow <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT_MAX and API_RATE_LIMIT_WINDOW must be positive"))
	}

	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR must not be empty"))
		}
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be file or mongo, got %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}
