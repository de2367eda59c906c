package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

var validDrivers = map[string]bool{
	"postgres": true,
	"pgx":      true,
}

const minSecretLen = 32

type Config struct {
	ServerPort  string
	AppEnv      string
	AuthDevMode bool
	LogLevel    string
	AWSRegion   string
	DB          DBConfig
	Cache       CacheConfig
	JWT         JWTConfig

	// parse failures from Load, reported by Validate
	loadErrs []error
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func (c Config) Validate() error {
	if len(c.loadErrs) > 0 {
		return errors.Join(c.loadErrs...)
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && !c.IsLocal() {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode && c.JWT.Secret == "" && c.JWT.SecretARN == "" {
		return fmt.Errorf("JWT_SECRET or JWT_SECRET_ARN is required when AUTH_DEV_MODE is disabled")
	}
	if c.JWT.Secret != "" && !c.IsLocal() && len(c.JWT.Secret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in %s environment", minSecretLen, c.AppEnv)
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if !validDrivers[c.DB.Driver] {
		return fmt.Errorf("invalid DB_DRIVER %q: must be postgres or pgx", c.DB.Driver)
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DB.AcquireTimeout <= 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.RedisURL == "" && !c.IsLocal() {
		return fmt.Errorf("REDIS_URL is required in %s environment", c.AppEnv)
	}
	return nil
}

type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	AutoMigrate     bool
}

// DSN is accepted by both lib/pq and the pgx stdlib driver.
func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CacheConfig struct {
	// RedisURL empty selects the in-process store.
	RedisURL  string
	TTL       time.Duration
	KeyPrefix string
}

type JWTConfig struct {
	Secret    string
	SecretARN string
	Issuer    string
	Audience  string
	Expiry    time.Duration
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()

	l := &loader{}
	cfg := Config{
		ServerPort:  envOrDefault("SERVER_PORT", "8080"),
		AppEnv:      envOrDefault("APP_ENV", "local"),
		AuthDevMode: envBool("AUTH_DEV_MODE"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		AWSRegion:   envOrDefault("AWS_REGION", "ap-northeast-1"),
		DB: DBConfig{
			Driver:          envOrDefault("DB_DRIVER", "postgres"),
			Host:            envOrDefault("DB_HOST", "localhost"),
			Port:            envOrDefault("DB_PORT", "5432"),
			User:            envOrDefault("DB_USER", "task"),
			Password:        envOrDefault("DB_PASSWORD", "task"),
			Name:            envOrDefault("DB_NAME", "task"),
			SSLMode:         envOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    l.int("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    l.int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: l.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AcquireTimeout:  l.duration("DB_ACQUIRE_TIMEOUT", 30*time.Second),
			AutoMigrate:     envBool("DB_AUTO_MIGRATE"),
		},
		Cache: CacheConfig{
			RedisURL:  envOrDefaultAllowEmpty("REDIS_URL", "redis://127.0.0.1:6379"),
			TTL:       l.duration("CACHE_TTL", 300*time.Second),
			KeyPrefix: os.Getenv("CACHE_KEY_PREFIX"),
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			SecretARN: os.Getenv("JWT_SECRET_ARN"),
			Issuer:    envOrDefault("JWT_ISSUER", "note-task-api"),
			Audience:  envOrDefault("JWT_AUDIENCE", "note-clients"),
			Expiry:    l.duration("JWT_EXPIRY", 60*time.Minute),
		},
	}
	cfg.loadErrs = l.errs
	return cfg
}

type loader struct {
	errs []error
}

func (l *loader) int(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return defaultVal
	}
	return n
}

func (l *loader) duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return defaultVal
	}
	return d
}

func envBool(key string) bool {
	return strings.EqualFold(envOrDefault(key, "false"), "true")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one set to "".
func envOrDefaultAllowEmpty(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}
