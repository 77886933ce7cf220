package auth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the auth module's settings, loaded from the environment
// during Init.
type Config struct {
	// JWTSecret signs access and refresh tokens (HS256). Required: there is
	// no default, so a deploy that forgets it fails to start instead of
	// signing tokens with a known value.
	JWTSecret string `env:"AUTH_JWT_SECRET"`

	// Issuer is the iss claim stamped on every token.
	Issuer string `env:"AUTH_ISSUER" envDefault:"everly"`

	// AccessTTL bounds access token lifetime.
	AccessTTL time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`

	// RefreshTTL bounds refresh token lifetime. Refresh tokens are single
	// use; a refresh rotates the pair.
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"720h"`

	// BcryptCost controls password hashing work factor.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}

// LoadConfig reads the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse auth config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, ErrSecretMissing
	}
	return cfg, nil
}
