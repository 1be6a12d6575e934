package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Storage  Storage  `yaml:"storage"`
	Log      Log      `yaml:"log"`
	Trace    Trace    `yaml:"trace"`
}

type Server struct {
	Port         string `yaml:"port"`
	CookieSecure bool   `yaml:"cookieSecure"`
}

type Database struct {
	Driver       string `yaml:"driver"` // sqlite, postgres
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

type Auth struct {
	SessionSecret  string        `yaml:"sessionSecret"`
	SessionTTL     time.Duration `yaml:"sessionTTL"`
	BcryptCost     int           `yaml:"bcryptCost"`
	AdminEmail     string        `yaml:"adminEmail"`
	AdminPassword  string        `yaml:"adminPassword"`
	LoginRateLimit float64       `yaml:"loginRateLimit"` // attempts per second per client
	LoginBurst     float64       `yaml:"loginBurst"`
}

type Storage struct {
	BasePath       string `yaml:"basePath"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

type Log struct {
	Level      string `yaml:"level"`
	BufferSize int    `yaml:"bufferSize"`
	ErrorFile  string `yaml:"errorFile"`
	RedisAddr  string `yaml:"redisAddr"`
	RedisDB    int    `yaml:"redisDB"`
	RedisKey   string `yaml:"redisKey"`
	RedisMax   int64  `yaml:"redisMax"`
}

type Trace struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Port:         "8080",
			CookieSecure: true,
		},
		Database: Database{
			Driver:       DriverSQLite,
			DSN:          "inscripciones.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Auth: Auth{
			SessionTTL:     7 * 24 * time.Hour,
			BcryptCost:     12,
			LoginRateLimit: 0.2,
			LoginBurst:     5,
		},
		Storage: Storage{
			BasePath:       "private",
			MaxUploadBytes: 100 << 20, // 100 MiB
		},
		Log: Log{
			Level:      "info",
			BufferSize: 1000,
			RedisKey:   "inscripciones:errors",
			RedisMax:   1000,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and finally the process environment, in that order.
func Load(path string) (Config, error) {
	conf := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&conf); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func applyEnv(c *Config) error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Auth.SessionSecret, "SESSION_SECRET")
	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Auth.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.Storage.BasePath, "FILE_BASE_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.ErrorFile, "LOG_ERROR_FILE")
	setString(&c.Log.RedisAddr, "REDIS_ADDR")
	setString(&c.Log.RedisKey, "REDIS_LOG_KEY")
	setString(&c.Trace.Endpoint, "TRACE_ENDPOINT")

	// Secure cookies stay on unless explicitly disabled for local development.
	if v := env("COOKIE_SECURE"); v != "" {
		c.Server.CookieSecure = v != "false"
	}

	if err := setInt(&c.Auth.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&c.Log.BufferSize, "LOG_BUFFER_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if v := env("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
		}
		c.Storage.MaxUploadBytes = n
	}
	if v := env("TRACE_ENABLE"); v != "" {
		enable, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRACE_ENABLE: %w", err)
		}
		c.Trace.Enable = enable
	}
	return nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.Storage.BasePath == "" {
		return errors.New("FILE_BASE_PATH is required")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Log.BufferSize <= 0 {
		return errors.New("LOG_BUFFER_SIZE must be positive")
	}
	if c.Trace.Enable && c.Trace.Endpoint == "" {
		return errors.New("TRACE_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := env(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}
