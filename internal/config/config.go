package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string `mapstructure:"env"`
	Port       string `mapstructure:"port"`
	LogLevel   string `mapstructure:"log_level"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	CORSOrigin string `mapstructure:"cors_origin"`

	DBDriver    string `mapstructure:"db_driver"` // postgres | sqlite
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`

	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"` // 0 disables the periodic run
	ReconcileRPS      float64       `mapstructure:"reconcile_rps"`
	AnalyticsCacheTTL time.Duration `mapstructure:"analytics_cache_ttl"`
	RateLimitWriteMax int           `mapstructure:"rate_limit_write_max"`
}

func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev")
}

var keys = []string{
	"env", "port", "log_level", "jwt_secret", "cors_origin",
	"db_driver", "database_url", "sqlite_path",
	"sweep_interval", "reconcile_interval", "reconcile_rps", "analytics_cache_ttl", "rate_limit_write_max",
}

// Load reads .env (if present), then config.yaml at path (optional), then the
// process environment, which wins. Keys map to upper-case env vars, e.g.
// sweep_interval <- SWEEP_INTERVAL.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, relying on environment:", err)
	}

	v := viper.New()
	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("sqlite_path", "data/khata.db")
	v.SetDefault("sweep_interval", time.Minute)
	v.SetDefault("reconcile_interval", time.Duration(0))
	v.SetDefault("reconcile_rps", 50.0)
	v.SetDefault("analytics_cache_ttl", 30*time.Second)
	v.SetDefault("rate_limit_write_max", 60)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is not set")
		}
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is not set")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.ReconcileRPS <= 0 {
		c.ReconcileRPS = 50
	}
	return nil
}

// DSN returns the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.DatabaseURL
}
