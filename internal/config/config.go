package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"docvault/internal/logger"
)

// ClientConfig holds the settings of the vault command-line client.
type ClientConfig struct {
	APIURL        string        `validate:"required,url"`
	HTTPTimeout   time.Duration `validate:"gt=0"`
	RetryAttempts uint          `validate:"min=1,max=10"`
	// SessionFile persists the bearer token between runs. Empty keeps the
	// session in memory only.
	SessionFile string
	DownloadDir string `validate:"required"`
	Tracing     bool
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int `validate:"gte=0"`
	MaxIdleConns       int `validate:"gte=0"`
	ConnMaxLifetimeSec int `validate:"gte=0"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ServerConfig holds the settings of the development backend.
type ServerConfig struct {
	AppHost string
	Port    string `validate:"required,numeric"`
	// Catalog selects where document metadata lives: "memory" or "postgres".
	Catalog string `validate:"oneof=memory postgres"`
	// Storage selects where file contents live: "memory" or "minio".
	Storage  string `validate:"oneof=memory minio"`
	TokenTTL time.Duration `validate:"gt=0"`
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Log    logger.Config
	Client ClientConfig
	Server ServerConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Log: logger.Config{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Disable:  getEnvBool("LOG_DISABLE", false),
		},
		Client: ClientConfig{
			APIURL:        getEnv("VAULT_API_URL", "http://localhost:8080/api"),
			HTTPTimeout:   getEnvDuration("VAULT_HTTP_TIMEOUT", 30*time.Second),
			RetryAttempts: uint(getEnvInt("VAULT_RETRY_ATTEMPTS", 3)),
			SessionFile:   getEnv("VAULT_SESSION_FILE", defaultSessionFile()),
			DownloadDir:   getEnv("VAULT_DOWNLOAD_DIR", "."),
			Tracing:       getEnvBool("VAULT_TRACING", false),
		},
		Server: ServerConfig{
			AppHost:  getEnv("APP_HOST", "localhost:8080"),
			Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
			Catalog:  getEnv("VAULT_CATALOG", "memory"),
			Storage:  getEnv("VAULT_STORAGE", "memory"),
			TokenTTL: getEnvDuration("VAULT_TOKEN_TTL", 24*time.Hour),
			Database: DatabaseConfig{
				Host:               getEnv("DB_HOST", ""),
				Port:               getEnv("DB_PORT", "5432"),
				User:               getEnv("DB_USER", ""),
				Password:           getEnv("DB_PASSWORD", ""),
				Name:               getEnv("DB_NAME", ""),
				SSLMode:            getEnv("DB_SSLMODE", "disable"),
				MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
				MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
				ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			},
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateClient checks the client and log settings.
func (c *AppConfig) ValidateClient() error {
	if err := validate.Struct(c.Log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	if err := validate.Struct(c.Client); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// ValidateServer checks the server and log settings. Database and MinIO
// settings are only required when the matching backend is selected.
func (c *AppConfig) ValidateServer() error {
	if err := validate.Struct(c.Log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	s := c.Server
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	var errs []error
	if s.Catalog == "postgres" {
		db := s.Database
		if db.Host == "" || db.Port == "" || db.User == "" || db.Name == "" {
			errs = append(errs, errors.New("DB_HOST, DB_PORT, DB_USER and DB_NAME are required for the postgres catalog"))
		}
	}
	if s.Storage == "minio" {
		m := s.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for minio storage"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docvault", "session.yaml")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("15s") and plain seconds ("15").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
