package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string        `env:"PORT, default=3000"`
	Env            string        `env:"APP_ENV, default=development"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
	APIURL         string        `env:"API_URL, default=http://localhost:8080/api"`
	APITimeout     time.Duration `env:"API_TIMEOUT, default=15s"`
	DevMode        bool          `env:"DEV_MODE, default=false"`
	DevDelay       time.Duration `env:"DEV_DELAY, default=500ms"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS, default=http://localhost:3000"`
	CLIHome        string        `env:"DENTCTL_HOME"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	Backend      string        `env:"SESSION_BACKEND, default=memory"`
	CookieName   string        `env:"SESSION_COOKIE, default=dental_sid"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
	IdleTTL      time.Duration `env:"SESSION_IDLE_TTL, default=12h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE, default=dental_portal"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom resolves the configuration against an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "mongo", "redis":
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.APIURL == "" && !c.DevMode {
		return fmt.Errorf("config: API_URL is required outside dev mode")
	}
	return nil
}

func (c *Config) Production() bool { return c.Env == "production" }

// StorageDir is where dentctl keeps its credential file.
func (c *Config) StorageDir() string {
	if c.CLIHome != "" {
		return c.CLIHome
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "dentctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dentctl")
}
