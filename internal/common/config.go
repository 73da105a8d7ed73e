// Package common provides shared utilities for Maple
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Maple
type Config struct {
	Environment  string        `toml:"environment"`
	HomeCurrency string        `toml:"home_currency"` // reporting currency for all totals (always "CAD" today)
	Server       ServerConfig  `toml:"server"`
	Storage      StorageConfig `toml:"storage"`
	Clients      ClientsConfig `toml:"clients"`
	Engine       EngineConfig  `toml:"engine"`
	Logging      LoggingConfig `toml:"logging"`
	Auth         AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Finnhub      FinnhubConfig      `toml:"finnhub"`
	Yahoo        YahooConfig        `toml:"yahoo"`
	ExchangeRate ExchangeRateConfig `toml:"exchangerate"`
}

// FinnhubConfig holds Finnhub symbol-search API configuration
type FinnhubConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FinnhubConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// YahooConfig holds Yahoo spark quote API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ExchangeRateConfig holds exchange-rate API configuration
type ExchangeRateConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ExchangeRateConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// EngineConfig tunes the computation engine's background behavior.
type EngineConfig struct {
	RatesRefreshInterval string `toml:"rates_refresh_interval"` // how often FX rates are re-fetched
	SaveDebounce         string `toml:"save_debounce"`          // quiet period before a dirty ledger is persisted
}

// GetRatesRefreshInterval parses and returns the refresh interval.
func (c *EngineConfig) GetRatesRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RatesRefreshInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// GetSaveDebounce parses and returns the save debounce duration.
func (c *EngineConfig) GetSaveDebounce() time.Duration {
	d, err := time.ParseDuration(c.SaveDebounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// AuthConfig holds verification settings for externally issued identity tokens.
// Maple does not issue tokens; the auth service does.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		HomeCurrency: "CAD",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000",
			Namespace: "maple",
			Database:  "maple",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			Finnhub: FinnhubConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com/v7/finance",
				RateLimit: 5,
				Timeout:   "30s",
			},
			ExchangeRate: ExchangeRateConfig{
				BaseURL: "https://api.exchangerate-api.com/v4",
				Timeout: "15s",
			},
		},
		Engine: EngineConfig{
			RatesRefreshInterval: "30m",
			SaveDebounce:         "2s",
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/maple.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateHomeCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MAPLE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MAPLE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("MAPLE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("MAPLE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("MAPLE_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if user := os.Getenv("MAPLE_STORAGE_USERNAME"); user != "" {
		config.Storage.Username = user
	}
	if pass := os.Getenv("MAPLE_STORAGE_PASSWORD"); pass != "" {
		config.Storage.Password = pass
	}

	if key := os.Getenv("MAPLE_FINNHUB_API_KEY"); key != "" {
		config.Clients.Finnhub.APIKey = key
	}

	if v := os.Getenv("MAPLE_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateHomeCurrency pins the reporting currency to CAD. The engine's
// statutory table is TFSA-specific, so other home currencies are not offered.
func validateHomeCurrency(config *Config) {
	config.HomeCurrency = "CAD"
}
