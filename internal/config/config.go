// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all environment-sourced configuration for the application.
// Mode selection and the datastore location come from CLI flags instead.
type Config struct {
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	GithubToken     string        `mapstructure:"GITHUB_TOKEN"`
	UserAgent       string        `mapstructure:"USER_AGENT"`
	RequestInterval time.Duration `mapstructure:"REQUEST_INTERVAL"`
	MaxPages        int           `mapstructure:"MAX_PAGES"`
	MaxRetries      int           `mapstructure:"MAX_RETRIES"`
}

// LoadConfig reads configuration from a .env file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("USER_AGENT", "heat-harvester")
	viper.SetDefault("REQUEST_INTERVAL", "5s")
	viper.SetDefault("MAX_PAGES", 50)
	viper.SetDefault("MAX_RETRIES", 4)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// Keys without defaults must be bound explicitly for Unmarshal to see them.
	_ = viper.BindEnv("GITHUB_TOKEN")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.RequestInterval < 0 {
		return nil, errors.New("REQUEST_INTERVAL must not be negative")
	}
	if cfg.MaxPages <= 0 {
		return nil, errors.New("MAX_PAGES must be positive")
	}

	return &cfg, nil
}
