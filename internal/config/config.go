package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for store.driver
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the link storage backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SQLiteConfig holds the SQLite / libSQL data source
type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	PoolSize  int    `mapstructure:"pool_size"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Environment     string `mapstructure:"environment"`
	LogLevel        string `mapstructure:"log_level"`
	BaseURL         string `mapstructure:"base_url"`
	ShortCodeLength int    `mapstructure:"short_code_length"`
	MaxCodeAttempts int    `mapstructure:"max_code_attempts"`
	EnableMetrics   bool   `mapstructure:"enable_metrics"`
}

// Load reads configuration from defaults, an optional config.yaml in
// ./configs or the working directory, an optional .env file and
// SHORTLINK_* environment variables, in increasing order of precedence.
// SHORTLINK_SERVER_PORT overrides server.port, and so on.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("SHORTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Server.Port)
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("store.driver", DriverSQLite)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "shortlink")
	v.SetDefault("database.password", "dev_password_123")
	v.SetDefault("database.dbname", "shortlink")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("sqlite.dsn", "file:urls.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.key_prefix", "shortlink:")

	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.base_url", "")
	v.SetDefault("app.short_code_length", 6)
	v.SetDefault("app.max_code_attempts", 0)
	v.SetDefault("app.enable_metrics", true)
}

// Validate checks settings that would otherwise fail later at startup
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unsupported store driver %q (want %s, %s or %s)",
			c.Store.Driver, DriverPostgres, DriverSQLite, DriverRedis)
	}

	if c.App.ShortCodeLength <= 0 {
		return fmt.Errorf("app.short_code_length must be positive, got %d", c.App.ShortCodeLength)
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address in host:port format
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.App.Environment) == "production"
}
