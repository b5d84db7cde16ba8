package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Auth     Auth     `mapstructure:"auth"`
	Sync     Sync     `mapstructure:"sync"`
	Lock     Lock     `mapstructure:"lock"`
	Client   Client   `mapstructure:"client"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port         int           `mapstructure:"port"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Database holds the configuration for the database.
type Database struct {
	Type            string        `mapstructure:"type"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Auth holds the token signing configuration.
type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpire time.Duration `mapstructure:"jwt_expire"`
}

// Sync holds the configuration for the broker synchronization worker.
type Sync struct {
	Delay        time.Duration `mapstructure:"delay"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	StaleAfter   time.Duration `mapstructure:"stale_after"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RecoverySpec string        `mapstructure:"recovery_spec"`
	AutoSyncSpec string        `mapstructure:"auto_sync_spec"`
}

// Lock holds the configuration for the per-account sync lock.
type Lock struct {
	Enabled bool          `mapstructure:"enabled"`
	Type    string        `mapstructure:"type"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   Redis         `mapstructure:"redis"`
}

// Redis holds the connection settings used by the redis lock.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Client holds the configuration for the API client used by journalctl.
type Client struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (config Config, err error) {
	// .env is optional, like the file below
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}
	err = nil

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "trading_journal.db")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("auth.jwt_secret", "trading_journal_secret_key_change_in_production")
	v.SetDefault("auth.jwt_expire", 24*time.Hour)

	v.SetDefault("sync.delay", 5*time.Second)
	v.SetDefault("sync.poll_interval", time.Second)
	v.SetDefault("sync.batch_size", 10)
	v.SetDefault("sync.stale_after", 10*time.Minute)
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.recovery_spec", "@every 1m")
	v.SetDefault("sync.auto_sync_spec", "@every 1h")

	v.SetDefault("lock.enabled", false)
	v.SetDefault("lock.type", "redis")
	v.SetDefault("lock.prefix", "journal:lock:")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.redis.addr", "localhost:6379")
	v.SetDefault("lock.redis.password", "")
	v.SetDefault("lock.redis.db", 0)
	v.SetDefault("lock.redis.pool_size", 10)

	v.SetDefault("client.base_url", "http://localhost:5000/api/v1")
	v.SetDefault("client.token", "")
	v.SetDefault("client.rate_limit", 10) // requests per second
	v.SetDefault("client.rate_limit_burst", 5)
	v.SetDefault("client.timeout", 10*time.Second)
}
