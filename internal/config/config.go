package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBDir     string     `env:"DB_DIR" envDefault:"data"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	StaticDir string     `env:"STATIC_DIR" envDefault:"../web/dist"`
	SeedDemo  bool       `env:"SEED_DEMO" envDefault:"true"`

	// Empty RedisURL keeps rate limiting in process.
	RedisURL string `env:"REDIS_URL"`

	LLM LLM `envPrefix:"LLM_"`

	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	AutosaveDelay      time.Duration `env:"AUTOSAVE_DELAY" envDefault:"1s"`
	SnapshotTTL        time.Duration `env:"SNAPSHOT_TTL" envDefault:"5m"`
	PreviewTimeout     time.Duration `env:"PREVIEW_TIMEOUT" envDefault:"10m"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

// LLM configures the upstream model API.
type LLM struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
	APIKey    string        `env:"API_KEY,required,notEmpty"`
	Model     string        `env:"MODEL" envDefault:"claude-3-5-haiku-latest"`
	MaxTokens int           `env:"MAX_TOKENS" envDefault:"2048"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}
	return &cfg, nil
}
