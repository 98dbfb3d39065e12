// Package config loads all runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8080"`
	MigratePath string `env:"MIGRATE_PATH" envDefault:"migrations"`

	JWTSecret   string `env:"JWT_SECRET,required"`
	TokenTTLMin int    `env:"TOKEN_TTL_MINUTES" envDefault:"1440"`

	// Cover-image blob store (S3-compatible, e.g. MinIO).
	S3Endpoint        string `env:"S3_ENDPOINT,required"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID,required"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY,required"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"book-covers"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3UseSSL          bool   `env:"S3_USE_SSL"`

	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration from environment: %w", err)
	}
	return &cfg, nil
}
