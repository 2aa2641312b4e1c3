package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name           string   `envconfig:"APP_NAME" default:"Ledgersync"`
		Port           int      `envconfig:"PORT" default:"8080"`
		AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgersync"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret string `envconfig:"JWT_SECRET"`
	}

	Statement struct {
		BaseURL   string        `envconfig:"STATEMENT_BASE_URL" default:"https://api.monobank.ua"`
		Timeout   time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"15s"`
		MaxWindow time.Duration `envconfig:"STATEMENT_MAX_WINDOW" default:"744h"`
		PageLimit int           `envconfig:"STATEMENT_PAGE_LIMIT" default:"500"`
	}

	Sync struct {
		AccountDelay    time.Duration `envconfig:"SYNC_ACCOUNT_DELAY" default:"500ms"`
		BatchTimeout    time.Duration `envconfig:"SYNC_BATCH_TIMEOUT" default:"2m"`
		InitialLookback time.Duration `envconfig:"SYNC_INITIAL_LOOKBACK" default:"720h"`
	}

	Categories struct {
		// Empty paths fall back to the embedded tables.
		DictionaryPath string        `envconfig:"CATEGORY_DICTIONARY_PATH"`
		MCCPath        string        `envconfig:"CATEGORY_MCC_PATH"`
		CacheTTL       time.Duration `envconfig:"CATEGORY_CACHE_TTL" default:"10m"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
