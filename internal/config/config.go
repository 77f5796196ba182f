package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string
	Env             string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CookieSecure    bool
	InMemory        bool

	BackendURL     string
	BackendTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	MongoURI    string
	MongoDBName string

	CartIdleTTL time.Duration

	Ledger LedgerConfig

	KafkaBrokers []string
	KafkaTopic   string

	StripeSecretKey string
	Currency        string
}

type LedgerConfig struct {
	Driver         string
	DSN            string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("IN_MEMORY", false)

	v.SetDefault("BACKEND_URL", "http://localhost:5000/api/")
	v.SetDefault("BACKEND_TIMEOUT", "15s")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("CART_IDLE_TTL", "15m")

	v.SetDefault("LEDGER_DRIVER", "sqlite")
	v.SetDefault("LEDGER_DSN", "storefront.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("MIGRATIONS_PATH", "./internal/ledger/migrations")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "storefront-checkout-events")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("CURRENCY", "eur")
}

// Load reads .env when present, then the environment, over the defaults.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		HTTPPort:        v.GetString("HTTP_PORT"),
		Env:             v.GetString("APP_ENV"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		CookieSecure:    v.GetBool("COOKIE_SECURE"),
		InMemory:        v.GetBool("IN_MEMORY"),

		BackendURL:     v.GetString("BACKEND_URL"),
		BackendTimeout: v.GetDuration("BACKEND_TIMEOUT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		MongoURI:    v.GetString("MONGO_URI"),
		MongoDBName: v.GetString("MONGO_DB_NAME"),

		CartIdleTTL: v.GetDuration("CART_IDLE_TTL"),

		Ledger: LedgerConfig{
			Driver:         strings.ToLower(v.GetString("LEDGER_DRIVER")),
			DSN:            v.GetString("LEDGER_DSN"),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			Name:           v.GetString("DB_NAME"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(v.GetString("CURRENCY")),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	switch c.Ledger.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("LEDGER_DRIVER must be sqlite or postgres, got %q", c.Ledger.Driver))
	}
	return errors.Join(errs...)
}

// MigrationsDir is the migrations folder of the configured ledger driver.
func (l LedgerConfig) MigrationsDir() string {
	return strings.TrimRight(l.MigrationsPath, "/") + "/" + l.Driver
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
