package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Queue    QueueConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":8080")
}

// QueueConfig contains the queue and delivery simulation settings.
type QueueConfig struct {
	DeliveryInterval time.Duration // assumed interval between deliveries
	MaxDeliverySize  int           // max donuts per delivery (and per order)
	PremiumCutoff    int64         // client ids below this are premium
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	interval, err := getEnvDuration("DELIVERY_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	maxSize, err := getEnvInt("MAX_DELIVERY_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cutoff, err := getEnvInt("PREMIUM_CUTOFF", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "donut.db"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Queue: QueueConfig{
			DeliveryInterval: interval,
			MaxDeliverySize:  maxSize,
			PremiumCutoff:    int64(cutoff),
		},
	}

	if cfg.Queue.MaxDeliverySize <= 0 {
		return nil, fmt.Errorf("MAX_DELIVERY_SIZE must be positive, got %d", cfg.Queue.MaxDeliverySize)
	}
	if cfg.Queue.DeliveryInterval <= 0 {
		return nil, fmt.Errorf("DELIVERY_INTERVAL must be positive, got %s", cfg.Queue.DeliveryInterval)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvDuration retrieves an environment variable as a duration with a default fallback.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, interval: %s, maxDelivery: %d, cutoff: %d}",
		c.Database.Path, c.HTTP.Address, c.Queue.DeliveryInterval, c.Queue.MaxDeliverySize, c.Queue.PremiumCutoff)
}
