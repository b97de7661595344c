// Package config loads service configuration from config.yaml and the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// S3Config is optional; an empty bucket disables archiving.
type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region" validate:"required_with=Bucket"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
	Prefix           string `mapstructure:"prefix"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	S3       S3Config       `mapstructure:"s3"`
}

var envBindings = map[string]string{
	"server.port":         "SERVER_PORT",
	"database.url":        "DATABASE_URL",
	"log.level":           "LOG_LEVEL",
	"log.format":          "LOG_FORMAT",
	"s3.bucket":           "S3_BUCKET",
	"s3.region":           "S3_REGION",
	"s3.accessKeyID":      "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":  "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain": "S3_CLOUDFRONT_DOMAIN",
	"s3.prefix":           "S3_PREFIX",
}

// Load reads config.yaml from path, then overrides keys from the environment.
// A missing file is fine; the environment alone may configure the service.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("s3.prefix", "flowcharts")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ArchiveEnabled reports whether exports can be uploaded to S3.
func (c Config) ArchiveEnabled() bool {
	return c.S3.Bucket != ""
}
