package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Perseus PerseusConfig `yaml:"perseus"`
	Catalog CatalogConfig `yaml:"catalog"`
	Build   BuildConfig   `yaml:"build"`
	Log     LogConfig     `yaml:"log"`
}

// PerseusConfig holds settings for reaching the Perseus vocabulary site.
type PerseusConfig struct {
	BaseURL string        `yaml:"base_url" env:"LEXI_PERSEUS_BASE_URL" env-default:"https://vocab.perseus.org"`
	Timeout time.Duration `yaml:"timeout"  env:"LEXI_PERSEUS_TIMEOUT"  env-default:"30s"`
}

// CatalogConfig holds catalog cache settings.
type CatalogConfig struct {
	CachePath     string `yaml:"cache_path"     env:"LEXI_CATALOG_CACHE"     env-default:"lexitheras.db"`
	FreshnessDays int    `yaml:"freshness_days" env:"LEXI_CATALOG_FRESHNESS" env-default:"7"`
}

// BuildConfig holds deck building settings.
type BuildConfig struct {
	Workers int `yaml:"workers" env:"LEXI_WORKERS" env-default:"4"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LEXI_LOG_LEVEL" env-default:"info"`
}

// Freshness returns the catalog cache freshness window as a duration.
func (c CatalogConfig) Freshness() time.Duration {
	return time.Duration(c.FreshnessDays) * 24 * time.Hour
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by LEXI_CONFIG_PATH; if unset and no
// ./lexitheras.yaml exists, configuration comes from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("LEXI_CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./lexitheras.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks values cleanenv cannot express through tags alone.
func (c *Config) Validate() error {
	if c.Perseus.BaseURL == "" {
		return fmt.Errorf("perseus base_url must not be empty")
	}
	if c.Perseus.Timeout <= 0 {
		return fmt.Errorf("perseus timeout must be positive, got %s", c.Perseus.Timeout)
	}
	if c.Catalog.FreshnessDays < 1 {
		return fmt.Errorf("catalog freshness_days must be at least 1, got %d", c.Catalog.FreshnessDays)
	}
	if c.Build.Workers < 1 {
		return fmt.Errorf("build workers must be at least 1, got %d", c.Build.Workers)
	}
	return nil
}
