package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the storefront client processes.
// All values come from env (optionally preloaded from a .env file by cmd).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	Services ServicesConfig
	Store    StoreConfig
	DB       DBConfig
	Redis    RedisConfig
	Session  SessionConfig
	MockAuth MockAuthConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// ServicesConfig holds the base URLs of the remote REST services.
type ServicesConfig struct {
	AuthURL      string
	InventoryURL string
	OrderURL     string
	WarehouseURL string
	UserURL      string

	HTTPTimeout  time.Duration
	OrderTimeout time.Duration
}

// Token store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type StoreConfig struct {
	Backend string
	// Path is the JSON document used by the file backend.
	Path string
	// Namespace isolates several sessions sharing one redis/postgres backend.
	Namespace string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SessionConfig struct {
	CheckInterval    time.Duration
	RefreshLookahead time.Duration
}

// MockAuthConfig configures the in-process mock auth service.
type MockAuthConfig struct {
	Port            int
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = envOr("APP_ENV", "local")
	c.App.Port, parseErrs = optionalInt(parseErrs, "APP_PORT", 8090)

	c.Services.AuthURL = envOr("AUTH_BASE_URL", "http://localhost:8081")
	c.Services.InventoryURL = envOr("INVENTORY_BASE_URL", "http://localhost:8082")
	c.Services.OrderURL = envOr("ORDER_BASE_URL", "http://localhost:8083")
	c.Services.UserURL = envOr("USER_BASE_URL", "http://localhost:8085")
	c.Services.WarehouseURL = envOr("WAREHOUSE_BASE_URL", "http://localhost:8086")
	c.Services.HTTPTimeout, parseErrs = optionalDuration(parseErrs, "HTTP_TIMEOUT")
	c.Services.OrderTimeout, parseErrs = optionalDuration(parseErrs, "ORDER_TIMEOUT")

	c.Store.Backend = envOr("TOKEN_STORE", StoreMemory)
	c.Store.Path = strings.TrimSpace(os.Getenv("TOKEN_STORE_PATH"))
	c.Store.Namespace = envOr("TOKEN_STORE_NAMESPACE", "default")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optionalInt(parseErrs, "DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = envOr("REDIS_HOST", "localhost")
	c.Redis.Port, parseErrs = optionalInt(parseErrs, "REDIS_PORT", 6379)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB, parseErrs = optionalInt(parseErrs, "REDIS_DB", 0)

	// Duration env vars are optional; defaults applied in Validate().
	c.Session.CheckInterval, parseErrs = optionalDuration(parseErrs, "SESSION_CHECK_INTERVAL")
	c.Session.RefreshLookahead, parseErrs = optionalDuration(parseErrs, "SESSION_REFRESH_LOOKAHEAD")

	c.MockAuth.Port, parseErrs = optionalInt(parseErrs, "MOCK_AUTH_PORT", 8081)
	c.MockAuth.JWTSecret = os.Getenv("MOCK_AUTH_JWT_SECRET")
	c.MockAuth.AccessTokenTTL, parseErrs = optionalDuration(parseErrs, "MOCK_AUTH_ACCESS_TTL")
	c.MockAuth.RefreshTokenTTL, parseErrs = optionalDuration(parseErrs, "MOCK_AUTH_REFRESH_TTL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration and fills in defaults for optional values.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	for _, s := range []struct{ key, val string }{
		{"AUTH_BASE_URL", c.Services.AuthURL},
		{"INVENTORY_BASE_URL", c.Services.InventoryURL},
		{"ORDER_BASE_URL", c.Services.OrderURL},
		{"USER_BASE_URL", c.Services.UserURL},
		{"WAREHOUSE_BASE_URL", c.Services.WarehouseURL},
	} {
		if err := validateBaseURL(s.key, s.val); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Services.HTTPTimeout <= 0 {
		c.Services.HTTPTimeout = 15 * time.Second
	}
	if c.Services.OrderTimeout <= 0 {
		c.Services.OrderTimeout = 30 * time.Second
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("TOKEN_STORE_PATH is required for the file token store"))
		}
	case StoreRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis token store"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	case StorePostgres:
		errs = append(errs, c.validateDB()...)
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE must be one of memory, file, redis, postgres, got %q", c.Store.Backend))
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "default"
	}

	if c.Session.CheckInterval <= 0 {
		c.Session.CheckInterval = time.Minute
	}
	if c.Session.RefreshLookahead <= 0 {
		c.Session.RefreshLookahead = 5 * time.Minute
	}

	if c.MockAuth.AccessTokenTTL <= 0 {
		c.MockAuth.AccessTokenTTL = 15 * time.Minute
	}
	if c.MockAuth.RefreshTokenTTL <= 0 {
		c.MockAuth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.MockAuth.RefreshTokenTTL <= c.MockAuth.AccessTokenTTL {
		errs = append(errs, errors.New("MOCK_AUTH_REFRESH_TTL must be greater than MOCK_AUTH_ACCESS_TTL"))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required for the postgres token store"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required for the postgres token store"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required for the postgres token store"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) MockAuthAddr() string {
	return fmt.Sprintf(":%d", c.MockAuth.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func optionalInt(errs []error, key string, def int) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func validateBaseURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
