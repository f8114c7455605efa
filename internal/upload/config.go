package upload

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read before parsing the environment when it exists.
const DefaultEnvFile = ".env"

// Config holds the S3 target of image uploads.
type Config struct {
	Bucket         string `env:"MAILSMITH_S3_BUCKET"`
	Region         string `env:"MAILSMITH_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"MAILSMITH_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"MAILSMITH_S3_SECRET_KEY"`
	Endpoint       string `env:"MAILSMITH_S3_ENDPOINT"`
	BaseURL        string `env:"MAILSMITH_S3_BASE_URL"`
	Prefix         string `env:"MAILSMITH_S3_PREFIX"`
	ForcePathStyle bool   `env:"MAILSMITH_S3_FORCE_PATH_STYLE"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// LoadConfig seeds the process environment from envFile (when present,
// without overriding variables already set) and parses Config from it.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing upload config: %w", err)
	}

	return cfg, nil
}
