// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Instagram OAuth Configuration
	InstagramClientID     string `mapstructure:"INSTAGRAM_CLIENT_ID"`
	InstagramClientSecret string `mapstructure:"INSTAGRAM_CLIENT_SECRET"`
	InstagramRedirectURI  string `mapstructure:"INSTAGRAM_REDIRECT_URI"`
	InstagramScopes       string `mapstructure:"INSTAGRAM_SCOPES"`

	// Frontend Configuration
	FrontendCallbackURL string `mapstructure:"FRONTEND_CALLBACK_URL"`

	// Presence sweep job
	PresenceSweepSchedule       string `mapstructure:"PRESENCE_SWEEP_SCHEDULE"`
	PresenceOfflineAfterMinutes int    `mapstructure:"PRESENCE_OFFLINE_AFTER_MINUTES"`

	// Elasticsearch Configuration (optional; empty disables handle search indexing)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "wlm_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	// Defaults are set for every key, credentials included: viper only
	// surfaces AutomaticEnv values for keys it already knows about.
	v.SetDefault("INSTAGRAM_CLIENT_ID", "")
	v.SetDefault("INSTAGRAM_CLIENT_SECRET", "")
	v.SetDefault("INSTAGRAM_REDIRECT_URI", "http://localhost:8000/auth/callback")
	v.SetDefault("INSTAGRAM_SCOPES", "user_profile,user_media")
	v.SetDefault("FRONTEND_CALLBACK_URL", "http://localhost:3000/callback")

	v.SetDefault("PRESENCE_SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("PRESENCE_OFFLINE_AFTER_MINUTES", 10)

	// Elasticsearch is optional; leave empty to serve handle search from Postgres.
	v.SetDefault("ELASTICSEARCH_URL", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.InstagramClientID) == "" {
		return nil, fmt.Errorf("FATAL: INSTAGRAM_CLIENT_ID is not set. It is required to build the provider authorization URL")
	}
	if strings.TrimSpace(cfg.InstagramClientSecret) == "" {
		return nil, fmt.Errorf("FATAL: INSTAGRAM_CLIENT_SECRET is not set. It is required to exchange authorization codes")
	}

	return &cfg, nil
}

// DSN builds the GORM Postgres DSN from the individual DB_* parameters.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}
