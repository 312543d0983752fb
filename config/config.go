package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	Events   EventsConfig   `mapstructure:"events"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"` // debug, release, test
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"` // bounds row-lock waits
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

// WalletConfig controls which currencies a wallet holds and how a newly
// opened wallet is funded. Seed amounts are drawn uniformly from
// [SeedMin, SeedMax]; equal bounds give a fixed amount.
type WalletConfig struct {
	Currencies []string `mapstructure:"currencies"`
	SeedMin    string   `mapstructure:"seed_min"`
	SeedMax    string   `mapstructure:"seed_max"`
}

// SeedRange parses the seed bounds.
func (w WalletConfig) SeedRange() (decimal.Decimal, decimal.Decimal, error) {
	lo, err := decimal.NewFromString(w.SeedMin)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet.seed_min: %w", err)
	}
	hi, err := decimal.NewFromString(w.SeedMax)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet.seed_max: %w", err)
	}
	if lo.IsNegative() || hi.LessThan(lo) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet seed range [%s, %s] is invalid", lo, hi)
	}
	return lo, hi, nil
}

type MatcherConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Stream  string `mapstructure:"stream"`
	MaxLen  int64  `mapstructure:"max_len"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks cross-field constraints that defaults cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if len(c.Wallet.Currencies) == 0 {
		return fmt.Errorf("wallet.currencies must not be empty")
	}
	if _, _, err := c.Wallet.SeedRange(); err != nil {
		return err
	}
	if c.Matcher.Enabled && c.Matcher.Interval <= 0 {
		return fmt.Errorf("matcher.interval must be positive when the matcher is enabled")
	}
	if c.Events.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("events require redis.enabled")
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CXE_ (Currency eXchange).
// Nested keys use underscore: CXE_DATABASE_HOST, CXE_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "currency_exchange")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.lock_timeout", "3s")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "currency-exchange")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.driver", StoragePostgres)
	v.SetDefault("wallet.currencies", []string{"USD", "EUR", "GBP", "JPY", "CHF", "PLN"})
	v.SetDefault("wallet.seed_min", "0")
	v.SetDefault("wallet.seed_max", "0")
	v.SetDefault("matcher.enabled", false)
	v.SetDefault("matcher.interval", "10s")
	v.SetDefault("matcher.batch_size", 500)
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.stream", "exchange:offers")
	v.SetDefault("events.max_len", 100000)
	v.SetDefault("metrics.enabled", true)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CXE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CXE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
