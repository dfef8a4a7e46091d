package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Booking     BookingConfig
	Outbox      OutboxConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BookingConfig struct {
	// SlotCapacity is the maximum total guest count one (date, slot) can
	// hold across all confirmed bookings.
	SlotCapacity int64
}

type OutboxConfig struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	LockTTL     time.Duration
}

type IdempotencyConfig struct {
	TTL        time.Duration
	GCInterval time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "caterflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Booking: BookingConfig{
			SlotCapacity: int64(getEnvAsInt("BOOKING_SLOT_CAPACITY", 50)),
		},
		Outbox: OutboxConfig{
			BatchSize:   getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
			Interval:    getEnvAsDuration("OUTBOX_INTERVAL", 500*time.Millisecond),
			MaxAttempts: getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 10),
			LockTTL:     getEnvAsDuration("OUTBOX_LOCK_TTL", 30*time.Second),
		},
		Idempotency: IdempotencyConfig{
			TTL:        getEnvAsDuration("IDEMPOTENCY_TTL", 7*24*time.Hour),
			GCInterval: getEnvAsDuration("IDEMPOTENCY_GC_INTERVAL", time.Hour),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
