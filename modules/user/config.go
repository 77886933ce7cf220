package user

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the user module's settings.
type Config struct {
	// BaseURL prefixes relative profile picture paths in responses.
	BaseURL string `env:"USER_BASE_URL" envDefault:"http://localhost:8080"`

	// MaxBioLength caps the profile bio.
	MaxBioLength int `env:"USER_MAX_BIO_LENGTH" envDefault:"500"`
}

// LoadConfig reads the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse user config: %w", err)
	}
	return cfg, nil
}
