package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the secretary
// service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	Timezone   string
	ContextTTL time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	BossName       string
	BossEmail      string
	BossWhatsAppID string
	BossTelegramID string

	WhatsAppVerifyToken   string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAppSecret     string

	TelegramBotToken    string
	TelegramSecretToken string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenFile    string
	GoogleCalendarID   string
}

// WhatsAppEnabled reports whether the WhatsApp transport is fully configured.
func (c Config) WhatsAppEnabled() bool {
	return c.WhatsAppVerifyToken != "" && c.WhatsAppAccessToken != "" && c.WhatsAppPhoneNumberID != ""
}

// TelegramEnabled reports whether the Telegram transport is fully configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to sensible defaults; required values are
// validated and every missing or malformed entry is reported at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:secretary.db?_foreign_keys=on",
		Timezone:         "UTC",
		ContextTTL:       24 * time.Hour,
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIModel:      "gpt-4.1-mini",
		GoogleTokenFile:  "token.json",
		GoogleCalendarID: "primary",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SECRETARY_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SECRETARY_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SECRETARY_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := strings.TrimSpace(os.Getenv("SECRETARY_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "SECRETARY_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SECRETARY_CONTEXT_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SECRETARY_CONTEXT_TTL")
		} else {
			cfg.ContextTTL = ttl
		}
	}

	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key == "" {
		missing = append(missing, "OPENAI_API_KEY")
	} else {
		cfg.OpenAIAPIKey = key
	}
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		cfg.OpenAIBaseURL = base
	}
	if model := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); model != "" {
		cfg.OpenAIModel = model
	}

	if name := strings.TrimSpace(os.Getenv("SECRETARY_BOSS_NAME")); name == "" {
		missing = append(missing, "SECRETARY_BOSS_NAME")
	} else {
		cfg.BossName = name
	}
	if email := strings.TrimSpace(os.Getenv("SECRETARY_BOSS_EMAIL")); email == "" {
		missing = append(missing, "SECRETARY_BOSS_EMAIL")
	} else {
		cfg.BossEmail = email
	}
	cfg.BossWhatsAppID = strings.TrimSpace(os.Getenv("SECRETARY_BOSS_WHATSAPP_ID"))
	cfg.BossTelegramID = strings.TrimSpace(os.Getenv("SECRETARY_BOSS_TELEGRAM_ID"))

	cfg.WhatsAppVerifyToken = strings.TrimSpace(os.Getenv("WHATSAPP_VERIFY_TOKEN"))
	cfg.WhatsAppAccessToken = strings.TrimSpace(os.Getenv("WHATSAPP_ACCESS_TOKEN"))
	cfg.WhatsAppPhoneNumberID = strings.TrimSpace(os.Getenv("WHATSAPP_PHONE_NUMBER_ID"))
	cfg.WhatsAppAppSecret = strings.TrimSpace(os.Getenv("WHATSAPP_APP_SECRET"))

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.TelegramSecretToken = strings.TrimSpace(os.Getenv("TELEGRAM_SECRET_TOKEN"))

	if id := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")); id == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	} else {
		cfg.GoogleClientID = id
	}
	if secret := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")); secret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	} else {
		cfg.GoogleClientSecret = secret
	}
	if tokenFile := strings.TrimSpace(os.Getenv("GOOGLE_TOKEN_FILE")); tokenFile != "" {
		cfg.GoogleTokenFile = tokenFile
	}
	if calendarID := strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID")); calendarID != "" {
		cfg.GoogleCalendarID = calendarID
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
