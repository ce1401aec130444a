package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// APIConfig holds the backend endpoint configuration. Timeout bounds every
// request; the observed backend has no server-side timeout behaviour the
// client can rely on.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	RateBurst   int           `mapstructure:"rate_burst"`
	SearchLimit int           `mapstructure:"search_limit"`
}

// SessionConfig holds the persisted-session configuration
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Session.Path == "" {
		cfg.Session.Path = defaultSessionPath()
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "qloo")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// API defaults. The backend mounts everything under /api; in development
	// the Flask server listens on 5001.
	viper.SetDefault("api.base_url", "http://localhost:5001/api")
	viper.SetDefault("api.timeout", "15s")
	viper.SetDefault("api.rate_limit", 5.0)
	viper.SetDefault("api.rate_burst", 10)
	viper.SetDefault("api.search_limit", 5)

	// Session defaults. Empty path resolves to the user config directory.
	viper.SetDefault("session.path", "")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output", "stderr")
}

func bindEnvVars() {
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	viper.BindEnv("api.base_url", "QLOO_API_BASE_URL")
	viper.BindEnv("api.timeout", "QLOO_API_TIMEOUT")
	viper.BindEnv("api.rate_limit", "QLOO_API_RATE_LIMIT")
	viper.BindEnv("api.rate_burst", "QLOO_API_RATE_BURST")
	viper.BindEnv("api.search_limit", "QLOO_API_SEARCH_LIMIT")

	viper.BindEnv("session.path", "QLOO_SESSION_PATH")

	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
}

func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}

	parsed, err := url.Parse(cfg.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api base URL %q is not a valid URL", cfg.API.BaseURL)
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}

	if cfg.API.RateLimit <= 0 || cfg.API.RateBurst <= 0 {
		return fmt.Errorf("api rate limit and burst must be positive")
	}

	if cfg.API.SearchLimit <= 0 {
		return fmt.Errorf("api search limit must be positive")
	}

	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".qloo", "session.json")
	}
	return filepath.Join(dir, "qloo", "session.json")
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
