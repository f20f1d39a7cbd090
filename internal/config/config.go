package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiplash-service"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres      Postgres
	Redis         Redis
	Translator    Translator
	ContentSafety ContentSafety
	Welcome       Welcome
}

// Postgres captures connection info for the document database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache + change-feed configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Translator configures the machine-translation service.
type Translator struct {
	Endpoint string        `env:"TRANSLATOR_ENDPOINT,notEmpty"`
	Key      string        `env:"TRANSLATOR_KEY,notEmpty"`
	Region   string        `env:"TRANSLATOR_REGION" envDefault:"francecentral"`
	CacheTTL time.Duration `env:"TRANSLATOR_CACHE_TTL" envDefault:"1h"`
}

// ContentSafety configures the text-moderation service.
type ContentSafety struct {
	Endpoint string `env:"CONTENT_SAFETY_ENDPOINT,notEmpty"`
	Key      string `env:"CONTENT_SAFETY_KEY,notEmpty"`
}

// Welcome governs the player-created change feed.
type Welcome struct {
	Channel string `env:"WELCOME_CHANNEL" envDefault:"players:created"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
