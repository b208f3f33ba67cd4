package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const minAdminTokenLen = 16

type Config struct {
	AppPort string `env:"APP_PORT" env-default:"8080"`

	DBDriver  string `env:"DB_DRIVER" env-default:"mysql"`
	MySQLHost string `env:"MYSQL_HOST" env-default:"mysql"`
	MySQLPort string `env:"MYSQL_PORT" env-default:"3306"`
	MySQLDB   string `env:"MYSQL_DB" env-default:"nftloan"`
	MySQLUser string `env:"MYSQL_USER" env-default:"nftloan"`
	MySQLPass string `env:"MYSQL_PASS" env-default:"nftloan"`

	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" env-default:"nftloan.db"`

	RedisAddr     string `env:"REDIS_ADDR" env-default:"redis:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	IdempTTLSecs  int           `env:"IDEMPOTENCY_TTL_SECONDS" env-default:"300"`
	OrderCacheTTL time.Duration `env:"ORDER_CACHE_TTL" env-default:"30s"`

	// Empty disables the deposit and asset registration routes.
	CustodyAdminToken string `env:"CUSTODY_ADMIN_TOKEN"`

	KafkaBrokers       string `env:"KAFKA_BROKERS"`
	KafkaTopic         string `env:"KAFKA_TOPIC" env-default:"loan-order-events"`
	EventsRedisChannel string `env:"EVENTS_REDIS_CHANNEL" env-default:"loan-orders.events"`

	DefaultMaturity     time.Duration `env:"LOAN_DEFAULT_MATURITY" env-default:"168h"`
	RejectLateRepayment bool          `env:"LOAN_REJECT_LATE_REPAYMENT" env-default:"false"`
	RelayPollInterval   time.Duration `env:"RELAY_POLL_INTERVAL" env-default:"1s"`
	RelayBatchSize      int           `env:"RELAY_BATCH_SIZE" env-default:"100"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q", c.DBDriver)
	}
	if c.DefaultMaturity <= 0 {
		return fmt.Errorf("invalid LOAN_DEFAULT_MATURITY %s", c.DefaultMaturity)
	}
	if c.RelayBatchSize <= 0 {
		return fmt.Errorf("invalid RELAY_BATCH_SIZE %d", c.RelayBatchSize)
	}
	if c.CustodyAdminToken != "" && len(c.CustodyAdminToken) < minAdminTokenLen {
		return fmt.Errorf("CUSTODY_ADMIN_TOKEN must be at least %d characters", minAdminTokenLen)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN
	case "sqlite":
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
