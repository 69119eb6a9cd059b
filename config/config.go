package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type Config struct {
	API         APIConfig      `yaml:"api"`
	DB          DBConfig       `yaml:"database"`
	Store       StoreConfig    `yaml:"store"`
	Telegram    TelegramConfig `yaml:"telegram"`
	AMQP        AMQPConfig     `yaml:"amqp"`
	Log         LogConfig      `yaml:"log"`
	DefaultLang string         `yaml:"default_lang"`
	AutoMigrate bool           `yaml:"auto_migrate"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 means no client timeout
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token"`
	IdleTimeout time.Duration `yaml:"idle_timeout"` // chats idle this long are dropped from memory
}

type AMQPConfig struct {
	URL      string `yaml:"url"` // empty disables order events
	Exchange string `yaml:"exchange"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads .env (if present) and the environment, then overlays the YAML
// file named by CONFIG_FILE when set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("API_TIMEOUT: %w", err)
	}
	idle, err := time.ParseDuration(getEnv("CHAT_IDLE_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("CHAT_IDLE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_URL", "http://localhost:8000/api"),
			Timeout: timeout,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "food_builder"),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", StoreDriverPostgres),
			SQLitePath: getEnv("SQLITE_PATH", "food-builder.db"),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TOKEN", ""),
			IdleTimeout: idle,
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "orders_topic"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: isTrue(os.Getenv("LOG_DEV")),
		},
		DefaultLang: getEnv("DEFAULT_LANG", "en"),
		AutoMigrate: isTrue(os.Getenv("AUTO_MIGRATE")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_URL %q", c.API.BaseURL)
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.DefaultLang != "en" && c.DefaultLang != "ar" {
		return fmt.Errorf("unsupported DEFAULT_LANG %q", c.DefaultLang)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("API_TIMEOUT must be >= 0")
	}
	if c.Telegram.IdleTimeout <= 0 {
		return fmt.Errorf("CHAT_IDLE_TIMEOUT must be > 0")
	}
	return nil
}

// PostgresURL builds the pgx connection string.
func (d DBConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Database,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}
