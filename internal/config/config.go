package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	// Server
	ServerHost string
	ServerPort int

	// Project store
	StoreType string
	StoreSlot string
	DataDir   string

	// SQLite
	SQLitePath string

	// MongoDB
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// PostgreSQL
	PostgresDSN string

	// Autosave
	AutosaveDebounce int // milliseconds

	// Sizing snapshots (InfluxDB)
	SnapshotEnabled bool
	InfluxURL       string
	InfluxToken     string
	InfluxDatabase  string

	// Logging
	LogLevel  string
	LogDir    string
	LogMaxAge int // days
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "127.0.0.1"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		StoreType: getEnv("STORE_TYPE", StoreFile),
		StoreSlot: getEnv("STORE_SLOT", "solarProjects"),
		DataDir:   getEnv("DATA_DIR", "./data"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/solar_planner.db"),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DATABASE", "solar_planner"),
		MongoCollection: getEnv("MONGO_COLLECTION", "store_slots"),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		AutosaveDebounce: getEnvInt("AUTOSAVE_DEBOUNCE_MS", 500),

		SnapshotEnabled: getEnvBool("SNAPSHOT_ENABLED", false),
		InfluxURL:       getEnv("INFLUXDB_URL", "http://localhost:8181"),
		InfluxToken:     getEnv("INFLUXDB_TOKEN", ""),
		InfluxDatabase:  getEnv("INFLUXDB_DATABASE", "solar_planner"),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogDir:    getEnv("LOG_DIRECTORY", "./logs"),
		LogMaxAge: getEnvInt("LOG_FILE_MAX_AGE", 2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch c.StoreType {
	case StoreFile, StoreMemory, StoreSQLite, StoreMongo, StorePostgres:
	default:
		return fmt.Errorf("invalid STORE_TYPE: %s (use file, memory, sqlite, mongo or postgres)", c.StoreType)
	}

	if c.StoreSlot == "" {
		return fmt.Errorf("STORE_SLOT must not be empty")
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}

	if c.AutosaveDebounce < 50 || c.AutosaveDebounce > 5000 {
		return fmt.Errorf("invalid AUTOSAVE_DEBOUNCE_MS: %d (must be 50-5000ms)", c.AutosaveDebounce)
	}

	if c.StoreType == StorePostgres && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when STORE_TYPE=postgres")
	}

	if c.SnapshotEnabled && (c.InfluxURL == "" || c.InfluxDatabase == "") {
		return fmt.Errorf("INFLUXDB_URL and INFLUXDB_DATABASE are required when SNAPSHOT_ENABLED=true")
	}

	return nil
}

// DebounceWindow returns the autosave quiescence window
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.AutosaveDebounce) * time.Millisecond
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
