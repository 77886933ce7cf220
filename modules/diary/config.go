package diary

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the diary module's settings.
type Config struct {
	// DefaultPageSize is used when a listing request does not specify one.
	DefaultPageSize int `env:"DIARY_DEFAULT_PAGE_SIZE" envDefault:"20"`

	// MaxPageSize caps entry listing page sizes.
	MaxPageSize int `env:"DIARY_MAX_PAGE_SIZE" envDefault:"100"`

	// SearchLimit caps the number of search results.
	SearchLimit int `env:"DIARY_SEARCH_LIMIT" envDefault:"50"`

	// CacheTTL bounds how long cached entry pages live.
	CacheTTL time.Duration `env:"DIARY_CACHE_TTL" envDefault:"5m"`
}

// LoadConfig reads the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse diary config: %w", err)
	}
	if cfg.MaxPageSize < 1 || cfg.DefaultPageSize < 1 {
		return nil, fmt.Errorf("diary page sizes must be positive (default=%d max=%d)",
			cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	return cfg, nil
}
