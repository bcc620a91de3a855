// Package config loads service configuration from a .env file and the
// environment. Environment variables win over the file, the file over
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/validators"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Argon2   Argon2Config
	Admin    AdminConfig
}

type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Environment string
}

type LedgerConfig struct {
	Store      string
	NamePolicy string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey   string
	ExpiryHours int
}

type Argon2Config struct {
	Time       int
	Memory     int
	Threads    int
	KeyLength  int
	SaltLength int
}

// AdminConfig seeds an admin user at startup when both fields are set.
type AdminConfig struct {
	Username string
	Password string
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.allowed_origins":  "SERVER_ALLOWED_ORIGINS",
	"server.request_timeout":  "SERVER_REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

	"log.environment": "LOG_ENVIRONMENT",

	"ledger.store":       "LEDGER_STORE",
	"ledger.name_policy": "LEDGER_NAME_POLICY",

	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.name":              "DATABASE_NAME",
	"database.ssl_mode":          "DATABASE_SSL_MODE",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DATABASE_CONN_MAX_LIFETIME",

	"redis.enabled":  "REDIS_ENABLED",
	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key":   "JWT_SECRET_KEY",
	"jwt.expiry_hours": "JWT_EXPIRY_HOURS",

	"argon2.time":        "ARGON2_TIME",
	"argon2.memory":      "ARGON2_MEMORY",
	"argon2.threads":     "ARGON2_THREADS",
	"argon2.key_length":  "ARGON2_KEY_LENGTH",
	"argon2.salt_length": "ARGON2_SALT_LENGTH",

	"admin.username": "ADMIN_USERNAME",
	"admin.password": "ADMIN_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "https://*,http://*")
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.environment", "production")

	v.SetDefault("ledger.store", StorePostgres)
	v.SetDefault("ledger.name_policy", validators.NamePolicyTwoWords)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "ledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("argon2.time", 1)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)
	v.SetDefault("argon2.key_length", 32)
	v.SetDefault("argon2.salt_length", 16)
}

// Load reads file (a dotenv file, may be missing) and the environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isMissing(err) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	for key, env := range envBindings {
		// dotenv keys arrive flat and lowercased
		if fileVal := v.Get(strings.ToLower(env)); fileVal != nil {
			v.SetDefault(key, fileVal)
		}
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			AllowedOrigins:  splitList(v.GetString("server.allowed_origins")),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Log: LogConfig{Environment: v.GetString("log.environment")},
		Ledger: LedgerConfig{
			Store:      strings.ToLower(v.GetString("ledger.store")),
			NamePolicy: v.GetString("ledger.name_policy"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey:   v.GetString("jwt.secret_key"),
			ExpiryHours: v.GetInt("jwt.expiry_hours"),
		},
		Argon2: Argon2Config{
			Time:       v.GetInt("argon2.time"),
			Memory:     v.GetInt("argon2.memory"),
			Threads:    v.GetInt("argon2.threads"),
			KeyLength:  v.GetInt("argon2.key_length"),
			SaltLength: v.GetInt("argon2.salt_length"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt.expiry_hours must be positive, got %d", c.JWT.ExpiryHours)
	}
	switch c.Ledger.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown ledger.store %q", c.Ledger.Store)
	}
	if _, err := validators.ParseNamePolicy(c.Ledger.NamePolicy); err != nil {
		return err
	}
	if c.Argon2.Time < 1 || c.Argon2.Memory < 1 || c.Argon2.Threads < 1 || c.Argon2.Threads > 255 ||
		c.Argon2.KeyLength < 16 || c.Argon2.SaltLength < 8 {
		return errors.New("argon2 parameters out of range")
	}
	return nil
}

func (c *Config) NamePolicy() validators.NamePolicy {
	policy, err := validators.ParseNamePolicy(c.Ledger.NamePolicy)
	if err != nil {
		return validators.DefaultNamePolicy()
	}
	return policy
}

func (c *Config) AuthConfig() services.AuthConfig {
	return services.AuthConfig{
		SecretKey: c.JWT.SecretKey,
		TokenTTL:  time.Duration(c.JWT.ExpiryHours) * time.Hour,
		Argon2: services.Argon2Params{
			Time:       uint32(c.Argon2.Time),
			Memory:     uint32(c.Argon2.Memory),
			Threads:    uint8(c.Argon2.Threads),
			KeyLength:  uint32(c.Argon2.KeyLength),
			SaltLength: uint32(c.Argon2.SaltLength),
		},
	}
}

// NewLogger builds a development logger for "development" and a
// production JSON logger otherwise.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	if strings.EqualFold(cfg.Environment, "development") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
