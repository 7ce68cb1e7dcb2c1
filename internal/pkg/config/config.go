package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	RateLimitRedis  = "redis"
	RateLimitMemory = "memory"
)

type Config struct {
	Env           string `env:"APP_ENV,         default=development"`
	Port          string `env:"PORT,            default=3000"`
	LogLevel      string `env:"LOG_LEVEL,       default=info"`
	ClientURL     string `env:"CLIENT_URL,      default=http://localhost:5173"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:3000"`

	Auth       AuthConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Background BackgroundConfig
}

type AuthConfig struct {
	JWTSecret            string        `env:"JWT_SECRET, required"`
	JWTExpiresIn         time.Duration `env:"JWT_EXPIRES_IN,         default=24h"`
	BcryptCost           int           `env:"BCRYPT_SALT_ROUNDS,     default=10"`
	PasswordResetTTL     time.Duration `env:"PASSWORD_RESET_TTL,     default=1h"`
	RevocationFailClosed bool          `env:"REVOCATION_FAIL_CLOSED, default=false"`
	RevocationDefaultTTL time.Duration `env:"REVOCATION_DEFAULT_TTL, default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, required"`
	Database string `env:"MONGO_DB,  default=turismo"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Attempts int    `env:"REDIS_CONNECT_ATTEMPTS, default=5"`
}

type RateLimitConfig struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED,  default=true"`
	Backend  string        `env:"RATE_LIMIT_BACKEND,  default=redis"`
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=20"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=1m"`
}

type BackgroundConfig struct {
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,     default=15m"`
	AccessLogWorkers int           `env:"ACCESS_LOG_WORKERS, default=2"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Auth.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_SALT_ROUNDS must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("PASSWORD_RESET_TTL must be positive"))
	}
	if c.Auth.RevocationDefaultTTL <= 0 {
		errs = append(errs, errors.New("REVOCATION_DEFAULT_TTL must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.Backend != RateLimitRedis && c.RateLimit.Backend != RateLimitMemory {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitRedis, RateLimitMemory))
	}
	return errors.Join(errs...)
}

// load processes the environment seen through lookuper and validates it.
func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from environment variables using go-envconfig.
// It panics when the configuration is missing or invalid.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}
