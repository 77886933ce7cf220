package media

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the media module's settings.
type Config struct {
	// UploadPath is the local directory uploaded files land in. Created
	// during Init when absent.
	UploadPath string `env:"MEDIA_UPLOAD_PATH" envDefault:"./uploads"`

	// BaseURL prefixes stored file paths in responses.
	BaseURL string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8080"`

	// MaxFileSize caps a single upload, in bytes.
	MaxFileSize int64 `env:"MEDIA_MAX_FILE_SIZE" envDefault:"10485760"`

	// AllowedTypes lists the accepted MIME types.
	AllowedTypes []string `env:"MEDIA_ALLOWED_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/gif,image/webp"`
}

// LoadConfig reads the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse media config: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("media max file size must be positive, got %d", cfg.MaxFileSize)
	}
	return cfg, nil
}
