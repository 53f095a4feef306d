package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// EnvDevelopment is the APP_ENV value for local runs.
const EnvDevelopment = "development"

// developmentJWTSecret signs tokens only when APP_ENV=development and JWT_SECRET is unset.
const developmentJWTSecret = "development-only-secret"

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	Storage  string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Maps     MapsConfig
	Auth     AuthConfig
	NATS     NATSConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// MapsConfig holds the routing provider configuration.
type MapsConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds token and account approval settings.
type AuthConfig struct {
	JWTSecret              string
	TokenTTL               time.Duration
	AutoApproveDrivers     bool
	AllowAdminRegistration bool
}

// NATSConfig holds event publishing configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled bool
}

// Load loads configuration from environment variables.
// Call Validate on the result before using it.
func Load() *Config {
	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "production"),
		Storage: getEnv("STORAGE_DRIVER", StoragePostgres),
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "cab_booking"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "cab-booking-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Maps: MapsConfig{
			APIKey:  getEnv("MAPS_API_KEY", ""),
			BaseURL: getEnv("MAPS_BASE_URL", ""),
			Timeout: getDurationEnv("MAPS_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("JWT_SECRET", ""),
			TokenTTL:               getDurationEnv("JWT_TTL", 24*time.Hour),
			AutoApproveDrivers:     getBoolEnv("AUTO_APPROVE_DRIVERS", false),
			AllowAdminRegistration: getBoolEnv("ALLOW_ADMIN_REGISTRATION", false),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "cab"),
		},
		Tracing: TracingConfig{
			Enabled: getBoolEnv("TRACING_ENABLED", false),
		},
	}

	if cfg.AppEnv == EnvDevelopment && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = developmentJWTSecret
	}
	return cfg
}

// Validate reports configuration the service must not start with.
func (c *Config) Validate() error {
	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET must be set outside development")
	case c.Auth.TokenTTL <= 0:
		return errors.New("JWT_TTL should be greater than 0")
	case c.Storage != StoragePostgres && c.Storage != StorageMemory:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage)
	}

	return nil
}

// getEnv returns the variable's value, or defaultValue when it is unset.
// A variable set to the empty string counts as set, so REDIS_ADDR= disables Redis.
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
