package app

import (
	"fmt"
	"strings"
	"time"
)

// Storage backends selectable with NOTES_STORAGE.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	Storage string

	DatabaseURL    string
	DBSchema       string
	DBMaxConns     int32
	DBMinConns     int32
	MigrateOnStart bool

	MongoURI      string
	MongoDatabase string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	cfg := Config{
		HTTPAddr:  EnvString("NOTES_HTTP_ADDR", ""),
		LogLevel:  EnvString("NOTES_LOG_LEVEL", "info"),
		LogFormat: EnvString("NOTES_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("NOTES_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("NOTES_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("NOTES_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("NOTES_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("NOTES_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    EnvInt("NOTES_HTTP_MAX_HEADER_BYTES", 1<<20),

		Storage: strings.ToLower(EnvString("NOTES_STORAGE", "")),

		DatabaseURL:    EnvString("NOTES_DATABASE_URL", ""),
		DBSchema:       EnvString("NOTES_DB_SCHEMA", "public"),
		DBMaxConns:     EnvInt32("NOTES_DB_MAX_CONNS", 10),
		DBMinConns:     EnvInt32("NOTES_DB_MIN_CONNS", 0),
		MigrateOnStart: EnvBool("NOTES_MIGRATE_ON_START", true),

		MongoURI:      EnvFirst("NOTES_MONGO_URI", "MONGO_URI"),
		MongoDatabase: EnvString("NOTES_MONGO_DATABASE", "clean-notes"),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + EnvString("PORT", "8080")
	}
	if cfg.Storage == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.Storage = StoragePostgres
		case cfg.MongoURI != "":
			cfg.Storage = StorageMongo
		default:
			cfg.Storage = StorageMemory
		}
	}
	return cfg
}

// Validate reports configuration that cannot start a server.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: NOTES_STORAGE=postgres requires NOTES_DATABASE_URL")
		}
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: NOTES_STORAGE=mongo requires NOTES_MONGO_URI")
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("config: NOTES_MONGO_DATABASE must not be empty")
		}
	default:
		return fmt.Errorf("config: unknown NOTES_STORAGE %q", c.Storage)
	}
	switch c.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("config: NOTES_LOG_FORMAT must be json or pretty, got %q", c.LogFormat)
	}
	return nil
}
