package internal

import (
	"errors"
	"log"
	"os"
	"strconv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Timing   TimingConfig
}

type DatabaseConfig struct {
	URL string
}

type ServerConfig struct {
	Port        string
	Environment string
}

type TimingConfig struct {
	StatusRefreshIntervalSec int
	HistoryRetentionDays     int
	TravelCacheTTLMin        int
	ServerShutdownTimeoutSec int
}

func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", ""),
		},
		Timing: TimingConfig{
			StatusRefreshIntervalSec: getEnvInt("STATUS_REFRESH_INTERVAL_SEC", 10),
			HistoryRetentionDays:     getEnvInt("HISTORY_RETENTION_DAYS", 7),
			TravelCacheTTLMin:        getEnvInt("TRAVEL_CACHE_TTL_MIN", 60),
			ServerShutdownTimeoutSec: getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SEC", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DB_URL is required but not provided")
	}
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Timing.StatusRefreshIntervalSec <= 0 {
		return errors.New("status refresh interval must be positive")
	}
	if c.Timing.HistoryRetentionDays <= 0 {
		return errors.New("history retention must be positive")
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if intVal, err := strconv.Atoi(val); err == nil {
		return intVal
	}
	log.Printf("Warning: invalid integer value for %s: %s, using default %d", key, val, defaultValue)
	return defaultValue
}
