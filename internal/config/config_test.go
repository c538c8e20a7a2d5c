package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BOT_TOKEN", "ADMIN_IDS", "STORE_BACKEND", "GOOGLE_SPREADSHEET_ID",
		"GOOGLE_SHEET_NAME", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_SERVICE_ACCOUNT_JSON",
		"SHEETS_REQUESTS_PER_MINUTE", "SQLITE_PATH", "POLL_INTERVAL",
		"TELEGRAM_MESSAGES_PER_SECOND", "TIMEZONE", "HEALTH_CHECK_PORT",
		"DEBUG_MODE", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	orig := embeddedEnv
	embeddedEnv = ""
	t.Cleanup(func() { embeddedEnv = orig })
}

func TestLoadConfig_RequiresToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-key")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BOT_TOKEN")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendSheets, cfg.StoreBackend)
	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.Equal(t, "service_account.json", cfg.CredentialsFile)
	assert.Equal(t, 60, cfg.RequestsPerMinute)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 25.0, cfg.MessagesPerSecond)
	assert.Equal(t, "8080", cfg.HealthCheckPort)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.DebugMode)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/leads.db")
	t.Setenv("ADMIN_IDS", "111, 222,")
	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.DebugMode)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/leads.db", cfg.SQLitePath)
	assert.Equal(t, []int64{111, 222}, cfg.AdminIDs)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.IsAdmin(222))
	assert.False(t, cfg.IsAdmin(333))
}

func TestLoadConfig_BadAdminIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ADMIN_IDS", "111,abc")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "abc")
}

func TestLoadConfig_BadTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "TIMEZONE")
}

func TestLoadConfig_EmbeddedFallback(t *testing.T) {
	clearEnv(t)
	embeddedEnv = "DEBUG_MODE=true\nSTORE_BACKEND=memory\nHEALTH_CHECK_PORT=9090\n"

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "9090", cfg.HealthCheckPort)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BotToken:          "t",
			StoreBackend:      BackendSheets,
			SpreadsheetID:     "key",
			SheetName:         "Sheet1",
			PollInterval:      time.Minute,
			RequestsPerMinute: 60,
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"debug without token", func(c *Config) { c.BotToken = ""; c.DebugMode = true }, false},
		{"missing token", func(c *Config) { c.BotToken = "" }, true},
		{"sheets without id", func(c *Config) { c.SpreadsheetID = "" }, true},
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.StoreBackend = BackendSQLite }, true},
		{"memory needs nothing", func(c *Config) { c.StoreBackend = BackendMemory; c.SpreadsheetID = "" }, false},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"zero quota", func(c *Config) { c.RequestsPerMinute = 0 }, true},
		{"negative send rate", func(c *Config) { c.MessagesPerSecond = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseAdminIDs(t *testing.T) {
	ids, err := ParseAdminIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = ParseAdminIDs(" 5 ,6")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, ids)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "25")
	t.Setenv("TEST_INT_INVALID", "notanumber")
	t.Setenv("TEST_DURATION", "1m30s")
	t.Setenv("TEST_FLOAT", "0.5")

	assert.Equal(t, 25, getEnvInt("TEST_INT", 10))
	assert.Equal(t, 10, getEnvInt("TEST_INT_INVALID", 10))
	assert.Equal(t, 10, getEnvInt("TEST_INT_UNSET_XYZ", 10))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, 0.5, getEnvFloat("TEST_FLOAT", 1))
	assert.Equal(t, "default", getEnvOrDefault("NONEXISTENT_VAR_XYZ", "default"))
}

func TestLoadStoreConfig_NoTokenNeeded(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := LoadStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, "leads.db", cfg.SQLitePath)

	t.Setenv("STORE_BACKEND", "excel")
	_, err = LoadStoreConfig()
	assert.Error(t, err)
}
