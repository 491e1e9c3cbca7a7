// Package config loads the client configuration from the environment.
//
// Configuration is read with github.com/caarlos0/env after an optional .env
// file was loaded. Every variable carries the CATALOG_AUTH_ prefix.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	authclient "github.com/goliatone/go-auth-client"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "CATALOG_AUTH_"

// Storage backends
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config is the client configuration
type Config struct {
	// BaseURL of the catalog backend
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	AuthPath string `env:"AUTH_PATH" envDefault:"/api/auth"`

	// Storage selects where the session survives restarts
	Storage  string `env:"STORAGE" envDefault:"file"`
	StateDir string `env:"STATE_DIR"`

	SQLiteDSN string `env:"SQLITE_DSN"`

	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTPTimeout bounds each request, zero means no timeout
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`
}

// RedisConfig configures the redis storage backend
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"catalog-auth:"`
}

var _ authclient.Config = Config{}

func (c Config) GetBaseURL() string {
	return c.BaseURL
}

func (c Config) GetAuthPath() string {
	return c.AuthPath
}

// Load reads the optional .env files and then the environment. With no
// files given it tries .env in the working directory.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	return Parse()
}

// Parse reads the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize applies defaults that depend on other values
func (c *Config) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.AuthPath != "" && !strings.HasPrefix(c.AuthPath, "/") {
		c.AuthPath = "/" + c.AuthPath
	}
	if c.StateDir == "" {
		c.StateDir = authclient.StateDir()
	}
	if c.SQLiteDSN == "" {
		c.SQLiteDSN = "file:" + c.StateDir + "/session.db"
	}
	if c.HTTPTimeout < 0 {
		c.HTTPTimeout = 0
	}
}

// Validate checks the values that can not be defaulted
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %sBASE_URL %q", EnvPrefix, c.BaseURL)
	}

	switch c.Storage {
	case StorageFile, StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("invalid %sSTORAGE %q: want file, sqlite, redis or memory", EnvPrefix, c.Storage)
	}

	return nil
}
