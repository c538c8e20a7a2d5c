// Package config provides configuration management for the lead intake service.
//
// This package handles loading configuration from environment variables,
// validating required settings, and providing sensible defaults for optional
// parameters. Configuration is loaded once at startup and remains immutable
// during runtime for thread-safety.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file in the working directory
//  3. Embedded .env file (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// embeddedEnv contains the .env file embedded at build time.
//
// The embedded file should only carry template values; real tokens and
// credentials come from the environment in production.
//
//go:embed .env
var embeddedEnv string

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	// Telegram
	BotToken          string  // Bot API token, optional in debug mode
	AdminIDs          []int64 // Chats that receive new-lead announcements and may run admin commands
	MessagesPerSecond float64 // Outbound send limiter

	// Record store
	StoreBackend      string // sheets, sqlite or memory
	SpreadsheetID     string // Google spreadsheet key
	SheetName         string // Worksheet title
	CredentialsFile   string // Service account key file
	CredentialsJSON   string // Inline service account key, wins over the file
	RequestsPerMinute int    // Client-side Sheets API quota
	SQLitePath        string // Database file for the sqlite backend

	// Polling
	PollInterval time.Duration

	// Clock used for created_at timestamps
	Location *time.Location

	// Health check server configuration
	HealthCheckPort string

	// Debug mode - simulates Telegram calls and switches to the development logger
	DebugMode bool
	LogLevel  string
}

// LoadConfig loads configuration from environment variables with defaults.
//
// Loading process:
//  1. Try to load external .env file (does not override the environment)
//  2. Parse embedded .env file and set as fallback environment variables
//  3. Read environment variables with defaults
//  4. Validate
//
// Returns:
//   - *Config: Fully populated configuration struct
//   - error: Validation error if required fields are missing or malformed
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStoreConfig is LoadConfig for the operator commands that only touch
// the record store: BOT_TOKEN is not required.
func LoadStoreConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	// External file first so it wins over the embedded template: godotenv
	// never overrides variables that are already set.
	_ = godotenv.Load()

	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	admins, err := ParseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}

	loc, err := loadLocation(getEnvOrDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	return &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		AdminIDs:          admins,
		MessagesPerSecond: getEnvFloat("TELEGRAM_MESSAGES_PER_SECOND", 25),

		StoreBackend:      strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendSheets)),
		SpreadsheetID:     os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:         getEnvOrDefault("GOOGLE_SHEET_NAME", "Sheet1"),
		CredentialsFile:   getEnvOrDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json"),
		CredentialsJSON:   os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		RequestsPerMinute: getEnvInt("SHEETS_REQUESTS_PER_MINUTE", 60),
		SQLitePath:        getEnvOrDefault("SQLITE_PATH", "leads.db"),

		PollInterval: getEnvDuration("POLL_INTERVAL", 60*time.Second),
		Location:     loc,

		HealthCheckPort: getEnvOrDefault("HEALTH_CHECK_PORT", "8080"),

		DebugMode: getEnvOrDefault("DEBUG_MODE", "false") == "true",
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

// Validate checks that required configuration is present and values are sensible.
//
// Validation rules:
//   - BOT_TOKEN is required unless DEBUG_MODE is on
//   - STORE_BACKEND must be a known backend
//   - the sheets backend needs a spreadsheet id
//   - intervals and quotas must be positive
func (c *Config) Validate() error {
	if c.BotToken == "" && !c.DebugMode {
		return fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	return c.validateStore()
}

func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("GOOGLE_SPREADSHEET_ID is required for the %s backend", BackendSheets)
		}
		if c.SheetName == "" {
			return fmt.Errorf("GOOGLE_SHEET_NAME cannot be empty")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want sheets, sqlite or memory)", c.StoreBackend)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %v", c.PollInterval)
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("SHEETS_REQUESTS_PER_MINUTE must be at least 1, got %d", c.RequestsPerMinute)
	}
	if c.MessagesPerSecond < 0 {
		return fmt.Errorf("TELEGRAM_MESSAGES_PER_SECOND cannot be negative, got %v", c.MessagesPerSecond)
	}
	return nil
}

// IsAdmin reports whether chatID is listed in ADMIN_IDS.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// ParseAdminIDs parses a comma separated list of chat ids. Blank entries are skipped.
func ParseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default if not set/invalid
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
