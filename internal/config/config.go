package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Profile image upload configuration
	Upload UploadConfig

	// User wizard configuration
	Wizard WizardConfig

	// Credential hashing configuration
	Security SecurityConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// UploadConfig holds profile image upload settings
type UploadConfig struct {
	MaxSize      int64 // in bytes
	AllowedTypes []string
	Dir          string
	PublicURL    string // prefix for stored file URLs
}

// WizardConfig holds settings for the user creation/edit wizard
type WizardConfig struct {
	SyncDebounce     time.Duration
	AsyncDebounce    time.Duration
	RequestTimeout   time.Duration
	SessionTTL       time.Duration
	JanitorInterval  time.Duration
	ProfileStep      bool
	BackendURL       string // when set, wizard sessions talk to a remote API
	EagerImageUpload bool
	OptionCacheTTL   time.Duration
}

// SecurityConfig holds credential settings
type SecurityConfig struct {
	BcryptCost int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// DefaultAllowedTypes is the profile image MIME allow-list
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// A missing .env is not an error; real environment variables win.
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "aero_hr"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Upload: UploadConfig{
			MaxSize:      getInt64Env("UPLOAD_MAX_SIZE", 5*1024*1024), // 5MB
			AllowedTypes: getListEnv("UPLOAD_ALLOWED_TYPES", DefaultAllowedTypes),
			Dir:          getEnv("UPLOAD_DIR", "./data/uploads"),
			PublicURL:    getEnv("UPLOAD_PUBLIC_URL", "/uploads"),
		},
		Wizard: WizardConfig{
			SyncDebounce:     getDurationEnv("WIZARD_SYNC_DEBOUNCE", 300*time.Millisecond),
			AsyncDebounce:    getDurationEnv("WIZARD_ASYNC_DEBOUNCE", 500*time.Millisecond),
			RequestTimeout:   getDurationEnv("WIZARD_REQUEST_TIMEOUT", 15*time.Second),
			SessionTTL:       getDurationEnv("WIZARD_SESSION_TTL", 30*time.Minute),
			JanitorInterval:  getDurationEnv("WIZARD_JANITOR_INTERVAL", time.Minute),
			ProfileStep:      getBoolEnv("WIZARD_PROFILE_STEP", true),
			BackendURL:       getEnv("WIZARD_BACKEND_URL", ""),
			EagerImageUpload: getBoolEnv("WIZARD_EAGER_IMAGE_UPLOAD", false),
			OptionCacheTTL:   getDurationEnv("WIZARD_OPTION_CACHE_TTL", 5*time.Minute),
		},
		Security: SecurityConfig{
			BcryptCost: getIntEnv("BCRYPT_COST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("UPLOAD_ALLOWED_TYPES must not be empty")
	}
	if c.Wizard.RequestTimeout <= 0 {
		return fmt.Errorf("WIZARD_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
