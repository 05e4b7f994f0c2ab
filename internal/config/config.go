package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default trigger phrases
const (
	DefaultTriggerOpen   = "鍵開けて！"
	DefaultTriggerClose  = "鍵閉めて！"
	DefaultTriggerStatus = "鍵閉まってる？"
	DefaultTriggerSensor = "温湿度は？"
)

// Config is read once at startup and passed to constructors
type Config struct {
	Env  string // "production" | "development"
	Port string

	DiscordToken string

	SwitchBotToken      string
	SwitchBotSecret     string
	SwitchBotAPIBaseURL string
	SwitchBotTimeout    time.Duration
	SwitchBotMock       bool

	SmartLockID string
	SensorID    string

	TriggerOpen   string
	TriggerClose  string
	TriggerStatus string
	TriggerSensor string

	ChatJWTSecret string
	ChatAPIKey    string
	ChatTokenTTL  time.Duration

	WorkerPoolSize int
}

// Error lists every missing or invalid setting
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Load reads .env files, if present, then the environment.
// A missing .env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from environment variables, applying defaults
func FromEnv() Config {
	env := strings.ToLower(getenvDefault("APP_ENV", "development"))
	if env != "production" {
		env = "development"
	}

	return Config{
		Env:  env,
		Port: getenvDefault("PORT", "8080"),

		DiscordToken: strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),

		SwitchBotToken:      strings.TrimSpace(os.Getenv("SWITCHBOT_TOKEN")),
		SwitchBotSecret:     strings.TrimSpace(os.Getenv("SWITCHBOT_SECRET")),
		SwitchBotAPIBaseURL: strings.TrimSpace(os.Getenv("SWITCHBOT_API_BASE_URL")),
		SwitchBotTimeout:    10 * time.Second,
		SwitchBotMock:       getenvBool("SWITCHBOT_MOCK"),

		SmartLockID: strings.TrimSpace(os.Getenv("SWITCHBOT_SMARTLOCK_ID")),
		SensorID:    strings.TrimSpace(os.Getenv("SWITCHBOT_DEVICE_ID")),

		TriggerOpen:   getenvDefault("TRIGGER_OPEN", DefaultTriggerOpen),
		TriggerClose:  getenvDefault("TRIGGER_CLOSE", DefaultTriggerClose),
		TriggerStatus: getenvDefault("TRIGGER_STATUS", DefaultTriggerStatus),
		TriggerSensor: getenvDefault("TRIGGER_WORD", DefaultTriggerSensor),

		ChatJWTSecret: os.Getenv("CHAT_JWT_SECRET"),
		ChatAPIKey:    os.Getenv("CHAT_API_KEY"),
		ChatTokenTTL:  time.Duration(getenvInt("CHAT_TOKEN_TTL_HOURS", 24)) * time.Hour,

		WorkerPoolSize: getenvInt("WORKER_POOL_SIZE", 4),
	}
}

// Validate reports every missing required setting at once
func (c Config) Validate() error {
	cfgErr := &Error{}

	if c.DiscordToken == "" && !c.ConsoleEnabled() {
		cfgErr.Missing = append(cfgErr.Missing, "DISCORD_TOKEN (or CHAT_JWT_SECRET and CHAT_API_KEY)")
	}
	if !c.SwitchBotMock {
		if c.SwitchBotToken == "" {
			cfgErr.Missing = append(cfgErr.Missing, "SWITCHBOT_TOKEN")
		}
		if c.SwitchBotSecret == "" {
			cfgErr.Missing = append(cfgErr.Missing, "SWITCHBOT_SECRET")
		}
	}
	if c.SmartLockID == "" && c.SensorID == "" {
		cfgErr.Missing = append(cfgErr.Missing, "SWITCHBOT_SMARTLOCK_ID or SWITCHBOT_DEVICE_ID")
	}
	if c.ChatJWTSecret != "" && c.ChatAPIKey == "" {
		cfgErr.Missing = append(cfgErr.Missing, "CHAT_API_KEY")
	}
	if c.WorkerPoolSize <= 0 {
		cfgErr.Invalid = append(cfgErr.Invalid, "WORKER_POOL_SIZE must be positive")
	}

	if len(cfgErr.Missing) > 0 || len(cfgErr.Invalid) > 0 {
		return cfgErr
	}
	return nil
}

// ConsoleEnabled reports whether the WebSocket chat console is configured
func (c Config) ConsoleEnabled() bool {
	return c.ChatJWTSecret != "" && c.ChatAPIKey != ""
}

// IsProduction reports whether APP_ENV=production
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}
