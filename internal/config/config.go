package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CHOCO"

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Service  string `default:"storefront"`
	LogLevel string `split_words:"true" default:"info"`

	HTTP     HTTPConfig
	Catalog  CatalogConfig
	Cart     CartConfig
	Orders   OrdersConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Metrics  MetricsConfig
	Contact  ContactConfig
}

type HTTPConfig struct {
	Addr            string        `default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"15s"`
	IdleTimeout     time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

type CatalogConfig struct {
	// Source is memory (built-in products) or postgres.
	Source string `default:"memory"`
}

type CartConfig struct {
	// Store is memory, redis or postgres.
	Store       string        `default:"memory"`
	TokenSecret string        `split_words:"true" required:"true"`
	TokenTTL    time.Duration `split_words:"true" default:"720h"`
	SnapshotTTL time.Duration `split_words:"true" default:"720h"`
	MaxSessions int           `split_words:"true" default:"10000"`
}

type OrdersConfig struct {
	Store string `default:"memory"`
}

type RedisConfig struct {
	URL string
}

type PostgresConfig struct {
	DSN string
}

type MetricsConfig struct {
	Enabled bool `default:"true"`
	Token   string
}

type ContactConfig struct {
	Delay      time.Duration `default:"1500ms"`
	RateLimit  int           `split_words:"true" default:"5"`
	RateWindow time.Duration `split_words:"true" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Catalog.Source = strings.ToLower(c.Catalog.Source)
	c.Cart.Store = strings.ToLower(c.Cart.Store)
	c.Orders.Store = strings.ToLower(c.Orders.Store)

	var errs []error
	check := func(name, got string, allowed ...string) {
		for _, a := range allowed {
			if got == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unsupported driver %q", name, got))
	}
	check("catalog source", c.Catalog.Source, DriverMemory, DriverPostgres)
	check("cart store", c.Cart.Store, DriverMemory, DriverRedis, DriverPostgres)
	check("orders store", c.Orders.Store, DriverMemory, DriverPostgres)

	if c.Cart.TokenSecret == "" {
		errs = append(errs, errors.New("cart token secret is required"))
	}
	if c.Cart.Store == DriverRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis url is required for the redis cart store"))
	}
	if c.NeedsPostgres() && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres dsn is required for postgres drivers"))
	}
	if c.Contact.RateLimit < 0 {
		errs = append(errs, errors.New("contact rate limit must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) NeedsPostgres() bool {
	return c.Catalog.Source == DriverPostgres ||
		c.Cart.Store == DriverPostgres ||
		c.Orders.Store == DriverPostgres
}
