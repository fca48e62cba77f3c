package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Serper       SerperConfig       `yaml:"serper" mapstructure:"serper"`
	CustomSearch CustomSearchConfig `yaml:"customsearch" mapstructure:"customsearch"`
	ProfileData  ProfileDataConfig  `yaml:"profiledata" mapstructure:"profiledata"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Enrich       EnrichConfig       `yaml:"enrich" mapstructure:"enrich"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the task and history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// SerperConfig holds Serper API settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CustomSearchConfig holds Google Custom Search settings.
type CustomSearchConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	EngineID string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// ProfileDataConfig holds the LinkedIn data API settings.
type ProfileDataConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// SearchConfig configures the provider fan-out phase.
type SearchConfig struct {
	ProvidersFile string `yaml:"providers_file" mapstructure:"providers_file"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichConfig configures the enrichment phase.
type EnrichConfig struct {
	Workers     int `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadscout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("customsearch.base_url", "https://www.googleapis.com")
	v.SetDefault("profiledata.base_url", "https://fresh-linkedin-profile-data.p.rapidapi.com")
	v.SetDefault("profiledata.requests_per_second", 2.0)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("enrich.workers", 8)
	v.SetDefault("enrich.timeout_secs", 20)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is sufficient for the given
// run mode ("resolve" or "serve").
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "resolve", "serve":
		if c.Serper.Key == "" && c.CustomSearch.Key == "" {
			missing = append(missing, "at least one of serper.key or customsearch.key is required")
		}
		if c.CustomSearch.Key != "" && c.CustomSearch.EngineID == "" {
			missing = append(missing, "customsearch.engine_id is required when customsearch.key is set")
		}
		if c.ProfileData.Key == "" {
			missing = append(missing, "profiledata.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			missing = append(missing, "store.path is required for the sqlite driver")
		}
	case "badger":
		// An empty path runs in-memory.
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required for the postgres driver")
		}
	default:
		missing = append(missing, "store.driver must be one of sqlite, badger, postgres")
	}

	if c.Enrich.Workers < 1 || c.Enrich.Workers > 64 {
		missing = append(missing, "enrich.workers must be between 1 and 64")
	}
	if c.ProfileData.RequestsPerSecond <= 0 {
		missing = append(missing, "profiledata.requests_per_second must be > 0")
	}
	if mode == "serve" && c.Server.Port <= 0 {
		missing = append(missing, "server.port must be > 0")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: invalid for mode %s:\n  - %s", mode, strings.Join(missing, "\n  - "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
