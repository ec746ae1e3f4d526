package sliparchive

import (
	"errors"
	"fmt"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/env"
)

// Config holds the S3 slip archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads the archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "ap-southeast-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("SLIP_ARCHIVE_ENABLED", "false") == "true",
	}

	// Validate required fields if the archive is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the slip archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the slip archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the slip archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the slip archive is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates a standardized S3 object key for a slip
func (c *Config) ObjectKey(profilePublicID, digest string) string {
	// Format: slips/<profile>/<digest>.jpg
	return fmt.Sprintf("slips/%s/%s.jpg", profilePublicID, digest)
}

// ThumbKey generates the object key for the review thumbnail of a slip
func (c *Config) ThumbKey(profilePublicID, digest string) string {
	return fmt.Sprintf("slips/%s/%s_thumb.jpg", profilePublicID, digest)
}
