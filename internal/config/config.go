// internal/config/config.go
//
// Runtime configuration resolved once at startup from the environment
// (after godotenv has loaded any .env file).
//
// Everything that varies between development and production lives here:
// store backend, platform credentials, admin credentials, timeouts.
// Handlers and services receive the values they need; nothing else reads
// the environment.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultAdminJWTSecret signs admin tokens in development only.
const DefaultAdminJWTSecret = "dev_secret_change_me"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env          string
	Port         string
	LogLevel     string
	ClientOrigin string

	// Leaderboard store
	StoreDriver  string
	SQLitePath   string
	DatabaseURL  string
	QueryTimeout time.Duration

	// Telegram game-score API
	BotToken            string
	TelegramAPIBase     string
	GameShortName       string
	PlatformTimeout     time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
	InitDataMaxAge      time.Duration
	DevPlayerID         string

	// Season administration
	AdminPasswordHash string
	AdminJWTSecret    string
	AdminTokenTTL     time.Duration

	LevelsFile      string
	FinishedGameTTL time.Duration
	RequestTimeout  time.Duration
}

func Load() Config {
	return Config{
		Env:                 strings.ToLower(getEnv("APP_ENV", "development")),
		Port:                getEnv("PORT", "5175"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ClientOrigin:        getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:          getEnv("SQLITE_PATH", "./data/sealhunt.db"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 3*time.Second),
		BotToken:            os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIBase:     getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		GameShortName:       getEnv("TELEGRAM_GAME_SHORT_NAME", "FindSealGame"),
		PlatformTimeout:     getEnvDuration("PLATFORM_TIMEOUT", 5*time.Second),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
		InitDataMaxAge:      getEnvDuration("INIT_DATA_MAX_AGE", 24*time.Hour),
		DevPlayerID:         getEnv("DEV_PLAYER_ID", "dev-user-123"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminJWTSecret:      getEnv("ADMIN_JWT_SECRET", DefaultAdminJWTSecret),
		AdminTokenTTL:       getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		LevelsFile:          os.Getenv("LEVELS_FILE"),
		FinishedGameTTL:     getEnvDuration("FINISHED_GAME_TTL", 10*time.Minute),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// Development reports whether the server runs outside production. It selects
// the mock platform adapter and the development identity.
func (c Config) Development() bool {
	return c.Env != "production"
}

// Production is the inverse of Development; used for cookie attributes.
func (c Config) Production() bool { return !c.Development() }

// AdminSecretConfigured reports whether admin tokens can be trusted. In
// production the signing secret must be set and differ from the default.
func (c Config) AdminSecretConfigured() bool {
	if c.Development() {
		return true
	}
	return c.AdminJWTSecret != "" && c.AdminJWTSecret != DefaultAdminJWTSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Str("value", v).Msg("invalid integer env var, using default")
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Str("value", v).Msg("invalid duration env var, using default")
			return fallback
		}
		return d
	}
	return fallback
}
