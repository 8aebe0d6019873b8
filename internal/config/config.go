// Package config loads the bot configuration from the environment and the
// user's config.env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/telegram-stamp-bot/internal/llm"
	"github.com/raine/telegram-stamp-bot/internal/maintenance"
)

const (
	AppName     = "telegram-stamp-bot"
	EnvFileName = "config.env"
)

// Environment variable names.
const (
	EnvBotToken         = "BOT_TOKEN"
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvOwnerTelegramID  = "OWNER_TELEGRAM_ID"
	EnvDBPath           = "STAMP_DB_PATH"
	EnvGeminiModel      = "GEMINI_MODEL"
	EnvScanDeepAnalysis = "SCAN_DEEP_ANALYSIS"
	EnvCacheMaxAge      = "ANALYSIS_CACHE_MAX_AGE"
)

// Defaults for optional settings.
const (
	DefaultDBPath      = "stamps.db"
	DefaultGeminiModel = llm.DefaultModel
	DefaultCacheMaxAge = maintenance.DefaultCacheMaxAge
)

// RequiredEnvVars lists all environment variables that must be set for the bot to run.
var RequiredEnvVars = []string{EnvBotToken, EnvGeminiAPIKey, EnvOwnerTelegramID}

// Config is the resolved runtime configuration.
type Config struct {
	BotToken        string
	GeminiAPIKey    string
	OwnerTelegramID int64
	DBPath          string
	GeminiModel     string
	// ScanDeepAnalysis requests printing, paper and cancellation details for
	// new scans.
	ScanDeepAnalysis bool
	CacheMaxAge      time.Duration
}

// Dir returns the application's config directory path.
// Creates the directory if it doesn't exist.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// FilePath returns the full path to the config file.
func FilePath() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Variables already set in the environment win. Errors are
// ignored since the file may not exist.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// MissingRequired returns the names of required variables that are unset.
func MissingRequired(getenv func(string) string) []string {
	var missing []string
	for _, v := range RequiredEnvVars {
		if getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	if missing := MissingRequired(getenv); len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	ownerID, err := strconv.ParseInt(strings.TrimSpace(getenv(EnvOwnerTelegramID)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvOwnerTelegramID, err)
	}

	cfg := &Config{
		BotToken:         getenv(EnvBotToken),
		GeminiAPIKey:     getenv(EnvGeminiAPIKey),
		OwnerTelegramID:  ownerID,
		DBPath:           DefaultDBPath,
		GeminiModel:      DefaultGeminiModel,
		ScanDeepAnalysis: true,
		CacheMaxAge:      DefaultCacheMaxAge,
	}

	if v := getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := getenv(EnvGeminiModel); v != "" {
		cfg.GeminiModel = v
	}
	if v := getenv(EnvScanDeepAnalysis); v != "" {
		deep, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvScanDeepAnalysis, err)
		}
		cfg.ScanDeepAnalysis = deep
	}
	if v := getenv(EnvCacheMaxAge); v != "" {
		age, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvCacheMaxAge, err)
		}
		if age <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvCacheMaxAge)
		}
		cfg.CacheMaxAge = age
	}

	return cfg, nil
}
