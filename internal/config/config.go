package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	DatabaseURL string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AdminEmails        []string

	// Session
	SessionSecret string

	// Logging
	Logger LoggerConfig

	// Phone input
	Phone PhoneConfig

	// App
	BaseURL string
	Port    string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // trace, debug, info, warn, error
	Environment string // production logs JSON, anything else logs to console
}

// PhoneConfig mirrors the inputs of the phone widget
type PhoneConfig struct {
	DefaultCountry     string
	PreferredCountries []string
	OnlyCountries      []string
	EnablePlaceholder  bool
	EnableMask         bool
	Required           bool
	InitialValue       string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "./intltel.db"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		SessionSecret:      getEnv("SESSION_SECRET", "change-me-in-production"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		Port:               getEnv("PORT", "8080"),
		AdminEmails:        getEnvList("ADMIN_EMAILS"),
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Phone: PhoneConfig{
			DefaultCountry:     strings.ToLower(getEnv("PHONE_DEFAULT_COUNTRY", "")),
			PreferredCountries: getEnvList("PHONE_PREFERRED_COUNTRIES"),
			OnlyCountries:      getEnvList("PHONE_ONLY_COUNTRIES"),
			InitialValue:       getEnv("PHONE_INITIAL_VALUE", ""),
		},
	}

	var err error
	if cfg.Phone.EnablePlaceholder, err = getEnvBool("PHONE_ENABLE_PLACEHOLDER", true); err != nil {
		return nil, err
	}
	if cfg.Phone.EnableMask, err = getEnvBool("PHONE_ENABLE_MASK", true); err != nil {
		return nil, err
	}
	if cfg.Phone.Required, err = getEnvBool("PHONE_REQUIRED", true); err != nil {
		return nil, err
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Logger.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
