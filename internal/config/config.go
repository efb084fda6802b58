package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config maps the whole application configuration. Values come from
// ./configs/config.yaml with environment-variable overrides (SERVER_PORT,
// SECURITY_API_KEYS, ...) and sane defaults for everything.
type Config struct {
	Server struct {
		Port        int    `mapstructure:"port"`
		BaseURL     string `mapstructure:"base_url"`
		Environment string `mapstructure:"environment"` // development | production
	} `mapstructure:"server"`

	Database struct {
		Name string `mapstructure:"name"` // SQLite database file
	} `mapstructure:"database"`

	Storage struct {
		Backend   string `mapstructure:"backend"` // local | oss
		LocalDir  string `mapstructure:"local_dir"`
		Endpoint  string `mapstructure:"endpoint"`
		Bucket    string `mapstructure:"bucket"`
		KeyID     string `mapstructure:"key_id"`
		KeySecret string `mapstructure:"key_secret"`
	} `mapstructure:"storage"`

	Security struct {
		APIKeys          []string `mapstructure:"api_keys"`
		RequireAPIKey    bool     `mapstructure:"require_api_key"`
		RateLimitMax     int      `mapstructure:"rate_limit_max"`
		RateLimitWindowS int      `mapstructure:"rate_limit_window_seconds"`
		MaxBodyBytes     int64    `mapstructure:"max_body_bytes"`
	} `mapstructure:"security"`

	Sweep struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
	} `mapstructure:"sweep"`
}

// IsProduction reports whether the server runs in production mode. Outside
// production, error responses may carry detail and non-browser user agents
// are only logged instead of rejected.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// RateLimitWindow returns the fixed-window duration of the rate limiter.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Security.RateLimitWindowS) * time.Second
}

// SweepInterval returns how often the background sweeper runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalMinutes) * time.Minute
}

// LoadConfig loads the application configuration using Viper.
// Missing config files are not fatal; defaults cover every key.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("database.name", "feedback.db")
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.local_dir", "./data/screenshots")
	viper.SetDefault("storage.endpoint", "")
	viper.SetDefault("storage.bucket", "")
	viper.SetDefault("storage.key_id", "")
	viper.SetDefault("storage.key_secret", "")
	viper.SetDefault("security.api_keys", []string{})
	viper.SetDefault("security.require_api_key", false)
	viper.SetDefault("security.rate_limit_max", 100)
	viper.SetDefault("security.rate_limit_window_seconds", 60)
	viper.SetDefault("security.max_body_bytes", 5*1024*1024)
	viper.SetDefault("sweep.interval_minutes", 60)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Port=%d, Env=%s, DB=%s, Storage=%s",
		cfg.Server.Port, cfg.Server.Environment, cfg.Database.Name, cfg.Storage.Backend)

	return &cfg, nil
}
