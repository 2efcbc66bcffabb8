package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds everything the service needs at start-up. It is loaded once
// in main and handed to constructors explicitly.
type Config struct {
	AppPort           string
	DBDriver          string
	DatabaseDSN       string
	JWTSecret         string
	TokenTTL          time.Duration
	FrontendURL       string
	RabbitMQURL       string
	LowStockThreshold int
	Admin             AdminConfig
}

// AdminConfig describes an optional administrator created at start-up.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Enabled reports whether an administrator should be bootstrapped.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Load reads configuration from defaults, an optional .env file and the
// environment, in that order of precedence.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".env")
}

// LoadFrom is Load with an explicit viper instance and env file path. An
// empty envFile skips file loading.
func LoadFrom(v *viper.Viper, envFile string) (*Config, error) {
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
			log.Printf("Loaded configuration from %s", envFile)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to start the service.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver != DriverMemory && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "sweetshop.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("ADMIN_NAME", "Administrator")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}
