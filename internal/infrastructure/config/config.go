package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// RegistrationDisabled turns off the anonymous /users/create endpoint.
	// The management surface can always create accounts.
	RegistrationDisabled bool `env:"REGISTRATION_DISABLED, default=false"`

	// AdminPassword seeds the reserved admin account on startup.
	AdminPassword string `env:"ADMIN_PASSWORD, default=admin"`

	// TrustedProxies is a comma-separated allowlist of proxy addresses whose
	// X-Forwarded-For header is honoured for log attribution only.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=kosync"`
}

// RedisConfig is optional: an empty Addr disables the failed-auth throttle.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
