// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Mongo   MongoConfig
	Upload  UploadConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// MongoConfig holds document-store connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string (required)
	// Supports both MONGO_URI and MONGODB_URI env vars for compatibility
	URI string `env:"MONGO_URI" envAlt:"MONGODB_URI" required:"true"`

	// Database is the database name (default: denemetakip)
	Database string `env:"MONGO_DATABASE" default:"denemetakip"`

	// ConnectTimeout bounds the initial connection attempt (default: 20s)
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" default:"20s"`

	// MaxPoolSize is the maximum number of pooled connections (default: 50)
	MaxPoolSize int `env:"MONGO_MAX_POOL_SIZE" default:"50"`

	// MinPoolSize is the minimum number of pooled connections (default: 5)
	MinPoolSize int `env:"MONGO_MIN_POOL_SIZE" default:"5"`

	// MaxIdleTime is the maximum idle time before a connection is closed (default: 30s)
	MaxIdleTime time.Duration `env:"MONGO_MAX_IDLE_TIME" default:"30s"`
}

// UploadConfig holds bulk-upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed spreadsheet size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel ingestion runs (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an ingestion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
