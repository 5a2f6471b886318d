// Package config loads the application configuration from environment
// variables and validates it before any component is wired up.
package config

import (
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting of the bot. Only the Telegram token is
// strictly required; the Amboss key is needed for the liquidity chart and
// everything else has a sensible default.
type Config struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" validate:"required"`
	AmbossAPIKey     string `envconfig:"AMBOSS_API_KEY"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	MempoolAPIURL string `envconfig:"MEMPOOL_API_URL" default:"https://mempool.space/api"`
	AmbossAPIURL  string `envconfig:"AMBOSS_API_URL" default:"https://api.amboss.space/graphql"`
	PriceAPIURL   string `envconfig:"PRICE_API_URL" default:"https://api.coingecko.com/api/v3"`

	ConfirmationTarget int64         `envconfig:"CONFIRMATION_TARGET" default:"6" validate:"gt=0"`
	TxPollInterval     time.Duration `envconfig:"TX_POLL_INTERVAL" default:"15s" validate:"gt=0"`
	BlockPollInterval  time.Duration `envconfig:"BLOCK_POLL_INTERVAL" default:"15s" validate:"gt=0"`

	ChartCacheTTL     time.Duration `envconfig:"CHART_CACHE_TTL" default:"1h" validate:"gt=0"`
	ChartFetchWorkers int           `envconfig:"CHART_FETCH_WORKERS" default:"8" validate:"gt=0"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	return cfg, validator.Validate(cfg)
}
