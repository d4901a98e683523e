// Package config loads the service configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"geekhub/internal/database"
	"geekhub/internal/logging"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geekhub/config.yaml",
}

const (
	// ConfigPathEnvVar overrides the config file path.
	ConfigPathEnvVar = "CONFIG_PATH"
	// EnvPrefix is stripped from environment variables; "__" separates sections.
	EnvPrefix = "GEEKHUB_"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  database.Config `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Providers ProvidersConfig `koanf:"providers"`
	Stats     StatsConfig     `koanf:"stats"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   logging.Config  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// CORSAllowPrivate also trusts localhost and private-network origins,
	// for running the frontend against a local backend.
	CORSAllowPrivate bool `koanf:"cors_allow_private"`
	// SearchRatePerMinute and SearchBurst throttle catalog search per client IP.
	SearchRatePerMinute int `koanf:"search_rate_per_minute"`
	SearchBurst         int `koanf:"search_burst"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Audience  string `koanf:"audience"`
	Issuer    string `koanf:"issuer"`
	// AdminUserIDs may list and trigger scheduler tasks.
	AdminUserIDs []string `koanf:"admin_user_ids"`
}

type ProvidersConfig struct {
	RAWGAPIKey       string        `koanf:"rawg_api_key"`
	RAWGBaseURL      string        `koanf:"rawg_base_url"`
	TMDBAPIKey       string        `koanf:"tmdb_api_key"`
	TMDBReadToken    string        `koanf:"tmdb_read_token"`
	TMDBBaseURL      string        `koanf:"tmdb_base_url"`
	Language         string        `koanf:"language"`
	Timeout          time.Duration `koanf:"timeout"`
	PageSize         int           `koanf:"page_size"`
	CacheDir         string        `koanf:"cache_dir"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	SearchCacheTTL   time.Duration `koanf:"search_cache_ttl"`
	BatchConcurrency int           `koanf:"batch_concurrency"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

type StatsConfig struct {
	Locale        string `koanf:"locale"`
	TopRatedLimit int    `koanf:"top_rated_limit"`
}

type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`
	// InvitationGrace is how long expired or used invitations are kept.
	InvitationGrace time.Duration `koanf:"invitation_grace"`
}

// defaultConfig returns a Config with every default applied before the
// config file and environment are read.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeout:         15 * time.Second,
			WriteTimeout:        30 * time.Second,
			ShutdownTimeout:     10 * time.Second,
			CORSOrigins:         []string{},
			SearchRatePerMinute: 60,
			SearchBurst:         10,
		},
		Database: database.Config{
			Driver:         database.DriverSQLite,
			Path:           "data/geekhub.db",
			MaxOpenConns:   10,
			ConnectRetries: 5,
			RetryDelay:     500 * time.Millisecond,
		},
		Providers: ProvidersConfig{
			RAWGBaseURL:      "https://api.rawg.io/api",
			TMDBBaseURL:      "https://api.themoviedb.org/3",
			Language:         "es-ES",
			Timeout:          10 * time.Second,
			PageSize:         20,
			CacheDir:         "cache",
			CacheTTL:         24 * time.Hour,
			SearchCacheTTL:   time.Hour,
			BatchConcurrency: 4,
			BreakerFailures:  5,
			BreakerTimeout:   30 * time.Second,
		},
		Stats: StatsConfig{
			Locale:        "es",
			TopRatedLimit: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			InvitationGrace: 24 * time.Hour,
		},
		Logging: logging.Config{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// envAliases maps conventional variable names onto config keys.
var envAliases = map[string]string{
	"DATABASE_URL":    "database.url",
	"RAWG_API_KEY":    "providers.rawg_api_key",
	"TMDB_API_KEY":    "providers.tmdb_api_key",
	"TMDB_READ_TOKEN": "providers.tmdb_read_token",
	"JWT_SECRET":      "auth.jwt_secret",
	"PORT":            "server.port",
}

// sliceConfigPaths are keys that may arrive as comma-separated env strings.
var sliceConfigPaths = []string{"server.cors_origins", "auth.admin_user_ids"}

// Load builds the configuration: defaults, then the YAML file, then env.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	aliases := env.Provider("", ".", func(key string) string {
		return envAliases[key]
	})
	if err := k.Load(aliases, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment aliases: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envKey turns GEEKHUB_PROVIDERS__RAWG_API_KEY into providers.rawg_api_key.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.SearchRatePerMinute < 0 || c.Server.SearchBurst < 0 {
		errs = append(errs, errors.New("server search rate limits must not be negative"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case database.DriverSQLite:
	case database.DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters"))
	}
	if c.Providers.Timeout <= 0 {
		errs = append(errs, errors.New("providers.timeout must be positive"))
	}
	if c.Providers.BatchConcurrency < 1 {
		errs = append(errs, errors.New("providers.batch_concurrency must be at least 1"))
	}
	if c.Stats.TopRatedLimit < 0 {
		errs = append(errs, errors.New("stats.top_rated_limit must not be negative"))
	}
	return errors.Join(errs...)
}
