package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"leetbot/database"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Primary Discord guild ID

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty for local-only events

	// Game configuration
	GameCron             string // cron expression, optional seconds field
	GameTimezone         string
	ResolutionWindowMs   int64
	EarlyWindowHours     int
	PenaltyThresholdMs   int64
	AllowLateAdvanceBets bool
	CommanderDays        int
	GeneralDays          int
	TargetSecret         string

	// Primary guild defaults, seeded into guild settings on startup
	AnnouncementChannelID string
	SergeantRoleID        string
	CommanderRoleID       string
	GeneralRoleID         string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// LoadDotEnv loads a .env file when one is present
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env file: %v", err)
	}
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Location loads the game timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.GameTimezone)
}

// ResolutionWindow is the length of the window the target falls into
func (c *Config) ResolutionWindow() time.Duration {
	return time.Duration(c.ResolutionWindowMs) * time.Millisecond
}

// EarlyWindow is how long before the cycle start advance bets are accepted
func (c *Config) EarlyWindow() time.Duration {
	return time.Duration(c.EarlyWindowHours) * time.Hour
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Game
		GameCron:             getEnvWithDefault("GAME_CRON", "37 13 * * *"),
		GameTimezone:         getEnvWithDefault("GAME_TIMEZONE", "Europe/Berlin"),
		ResolutionWindowMs:   getEnvInt64("GAME_RESOLUTION_WINDOW_MS", 60000),
		EarlyWindowHours:     int(getEnvInt64("GAME_EARLY_WINDOW_HOURS", 2)),
		PenaltyThresholdMs:   getEnvInt64("GAME_PENALTY_THRESHOLD_MS", 3000),
		AllowLateAdvanceBets: getEnvBool("GAME_ALLOW_LATE_ADVANCE", false),
		CommanderDays:        int(getEnvInt64("GAME_COMMANDER_DAYS", 14)),
		GeneralDays:          int(getEnvInt64("GAME_GENERAL_DAYS", 365)),
		TargetSecret:         os.Getenv("TARGET_SECRET"),

		// Primary guild defaults
		AnnouncementChannelID: os.Getenv("ANNOUNCEMENT_CHANNEL_ID"),
		SergeantRoleID:        os.Getenv("SERGEANT_ROLE_ID"),
		CommanderRoleID:       os.Getenv("COMMANDER_ROLE_ID"),
		GeneralRoleID:         os.Getenv("GENERAL_ROLE_ID"),

		// OpenTelemetry
		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "leetbot"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MILLIS", 30000)),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the game settings
func (c *Config) Validate() error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.GameCron); err != nil {
		return fmt.Errorf("GAME_CRON %q is invalid: %w", c.GameCron, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("GAME_TIMEZONE %q is invalid: %w", c.GameTimezone, err)
	}
	if c.ResolutionWindowMs <= 0 {
		return fmt.Errorf("GAME_RESOLUTION_WINDOW_MS must be positive, got %d", c.ResolutionWindowMs)
	}
	if c.EarlyWindowHours < 0 {
		return fmt.Errorf("GAME_EARLY_WINDOW_HOURS cannot be negative, got %d", c.EarlyWindowHours)
	}
	if c.PenaltyThresholdMs < 0 {
		return fmt.Errorf("GAME_PENALTY_THRESHOLD_MS cannot be negative, got %d", c.PenaltyThresholdMs)
	}
	if c.CommanderDays <= 0 || c.GeneralDays <= 0 {
		return fmt.Errorf("rank periods must be positive, got commander=%d general=%d", c.CommanderDays, c.GeneralDays)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		log.Warnf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		log.Warnf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		DiscordToken:             "test-token",
		GameCron:                 "37 13 * * *",
		GameTimezone:             "UTC",
		ResolutionWindowMs:       60000,
		EarlyWindowHours:         2,
		PenaltyThresholdMs:       3000,
		CommanderDays:            14,
		GeneralDays:              365,
		TargetSecret:             "test-secret",
		OTelServiceName:          "leetbot",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 30000,
		LogLevel:                 "info",
		Environment:              "test",
	}
}
