// Package config loads application configuration from config files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
type Config struct {
	AppEnv string
	Port   string

	// BaseURL is the externally reachable origin used in mailed links.
	BaseURL string

	JWTSecret      string
	TokenLifetime  time.Duration
	AllowedOrigins string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	// DBReadHost, when set, points reads at a replica.
	DBReadHost string

	RedisURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MediaDir         string
	MediaMaxUploadMB int

	TracingEnabled     bool
	TracingExporter    string
	TracingEndpoint    string
	TracingSampleRatio float64
}

// Load reads config.yml, overlays config.<env>.yml if present, then applies
// environment variables. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_LIFETIME", "360h")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "mingle")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_READ_HOST", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@mingle.local")
	v.SetDefault("MEDIA_DIR", "./media")
	v.SetDefault("MEDIA_MAX_UPLOAD_MB", 10)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	env := v.GetString("APP_ENV")
	if env != "" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("merging %s config: %w", env, err)
			}
		}
	}

	cfg := &Config{
		AppEnv:             v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		BaseURL:            strings.TrimRight(v.GetString("BASE_URL"), "/"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenLifetime:      v.GetDuration("TOKEN_LIFETIME"),
		AllowedOrigins:     v.GetString("ALLOWED_ORIGINS"),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBName:             v.GetString("DB_NAME"),
		DBSSLMode:          v.GetString("DB_SSLMODE"),
		DBReadHost:         v.GetString("DB_READ_HOST"),
		RedisURL:           v.GetString("REDIS_URL"),
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetString("SMTP_PORT"),
		SMTPUsername:       v.GetString("SMTP_USERNAME"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPFrom:           v.GetString("SMTP_FROM"),
		MediaDir:           v.GetString("MEDIA_DIR"),
		MediaMaxUploadMB:   v.GetInt("MEDIA_MAX_UPLOAD_MB"),
		TracingEnabled:     v.GetBool("TRACING_ENABLED"),
		TracingExporter:    v.GetString("TRACING_EXPORTER"),
		TracingEndpoint:    v.GetString("TRACING_ENDPOINT"),
		TracingSampleRatio: v.GetFloat64("TRACING_SAMPLE_RATIO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces settings that must hold before the server starts.
// Production gets the strict checks; other environments get warnings.
func (c *Config) Validate() error {
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("TOKEN_LIFETIME must be positive")
	}
	if c.MediaMaxUploadMB <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_MB must be positive")
	}

	if !c.IsProduction() {
		if c.JWTSecret == "" {
			slog.Warn("JWT_SECRET is empty, using insecure development default")
			c.JWTSecret = "insecure-development-secret-do-not-use"
		}
		return nil
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	if c.DBSSLMode == "disable" {
		slog.Warn("DB_SSLMODE is 'disable' in production")
	}
	if c.SMTPHost == "" {
		slog.Warn("SMTP_HOST is empty in production, mail falls back to logging")
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsTest reports whether the app runs under the test environment.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// DSN builds the postgres connection string for the primary database.
func (c *Config) DSN() string {
	return c.dsnFor(c.DBHost)
}

// ReadDSN builds the connection string for the read replica, or "" when no
// replica is configured.
func (c *Config) ReadDSN() string {
	if c.DBReadHost == "" {
		return ""
	}
	return c.dsnFor(c.DBReadHost)
}

func (c *Config) dsnFor(host string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MaxUploadBytes is the request body limit for media uploads.
func (c *Config) MaxUploadBytes() int {
	return c.MediaMaxUploadMB * 1024 * 1024
}
