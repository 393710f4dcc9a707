// Package config manages environment variables.
//
// It reads variables from the process environment (and an optional `.env`
// file), loads them into structured Go types, and validates that required
// values are present so the application fails fast on bad configuration.
//
// Environment keys use the OPENWORK_ prefix and a double underscore for
// nesting:
//
//	OPENWORK_DATABASE__HOST               -> database.host
//	OPENWORK_SERVER__READ_TIMEOUT         -> server.read_timeout
//	OPENWORK_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads `.env` into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const (
	envPrefix = "OPENWORK_"

	// ServiceName tags logs, traces and metrics.
	ServiceName = "openwork"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional; defaults are injected
// when it is missing.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Query         QueryConfig          `koanf:"query"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development staging production test"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimit is requests per second per client IP on /api routes. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores the Clerk secret key used to verify bearer tokens.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IntegrationConfig holds credentials of third-party services.
// An empty Resend key disables notification mail.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	MailFrom     string `koanf:"mail_from"`
}

// QueryConfig tunes work package queries.
type QueryConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"min=0,max=1000"`
	MaxTimestamps   int `koanf:"max_timestamps" validate:"min=0,max=20"`
	// StatusCacheTTL is how long the issue status list stays in Redis.
	StatusCacheTTL time.Duration `koanf:"status_cache_ttl"`
}

// DSN builds the postgres URL for the configured database.
func (d DatabaseConfig) DSN() string {
	return buildDSN(d)
}

// LoadConfig loads configuration from environment variables, validates it,
// applies defaults and returns the result. Any failure is fatal.
func LoadConfig() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal main config")
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	mainConfig.applyDefaults()

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}

// envKey turns OPENWORK_DATABASE__SSL_MODE into database.ssl_mode.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (c *Config) applyDefaults() {
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env

	if c.Query.DefaultPageSize == 0 {
		c.Query.DefaultPageSize = 100
	}
	if c.Query.MaxTimestamps == 0 {
		c.Query.MaxTimestamps = 5
	}
	if c.Query.StatusCacheTTL <= 0 {
		c.Query.StatusCacheTTL = 10 * time.Minute
	}
	if c.Integration.MailFrom == "" {
		c.Integration.MailFrom = "openwork <notifications@openwork.dev>"
	}
}

func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		urlEscape(d.Password),
		hostPort(d.Host, d.Port),
		d.Name,
		d.SSLMode,
	)
}
