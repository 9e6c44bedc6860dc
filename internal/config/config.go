package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings is the full process configuration, populated from the
// environment (a .env file is loaded in main before parsing).
type Settings struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// One bot per variant; a variant without a token is not served.
	DeductionBotToken string `env:"DEDUCTION_BOT_TOKEN"`
	CouncilBotToken   string `env:"COUNCIL_BOT_TOKEN"`

	// WebhookSecret is the unguessable path segment Telegram calls.
	WebhookSecret string `env:"WEBHOOK_SECRET,required"`

	// SessionLimit caps concurrently live sessions.
	SessionLimit int `env:"SESSION_LIMIT" envDefault:"16"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Settings value.
func Load() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if s.DeductionBotToken == "" && s.CouncilBotToken == "" {
		return nil, fmt.Errorf("no bot token configured; set DEDUCTION_BOT_TOKEN or COUNCIL_BOT_TOKEN")
	}
	return &s, nil
}
