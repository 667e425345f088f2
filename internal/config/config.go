// Package config содержит логику чтения конфигурации сервиса ELTIW.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress   = "localhost:8080"
	defaultSQLitePath   = "eltiw.db"
	defaultCookieSecret = "eltiw-secret"
)

// Config содержит параметры конфигурации сервиса ELTIW.
type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseURI       string `env:"DATABASE_URI"`
	SQLitePath        string `env:"SQLITE_PATH"`
	CookieSecret      string `env:"COOKIE_SECRET"`
	StatePassphrase   string `env:"STATE_PASSPHRASE"`
	EnableCompression bool   `env:"ENABLE_COMPRESSION"`
	EnableEncryption  bool   `env:"ENABLE_ENCRYPTION"`
	ResendAPIKey      string `env:"RESEND_API_KEY"`
	ResendBaseURL     string `env:"RESEND_BASE_URL"`
	EmailFrom         string `env:"EMAIL_FROM"`
	PublicURL         string `env:"PUBLIC_URL"`
}

// DefaultCookieSecret сообщает, используется ли встроенный секрет cookie.
func (c *Config) DefaultCookieSecret() bool {
	return c.CookieSecret == defaultCookieSecret
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SQLitePath, "s", defaultSQLitePath, "SQLite file used when database URI is empty")
	flag.StringVar(&cfg.CookieSecret, "k", defaultCookieSecret, "board cookie signing key")
	flag.StringVar(&cfg.StatePassphrase, "p", "", "passphrase for state encryption")
	flag.BoolVar(&cfg.EnableCompression, "z", false, "compress persisted state")
	flag.BoolVar(&cfg.EnableEncryption, "e", false, "encrypt persisted state")

	flag.Parse()

	// env.Parse заполняет только заданные переменные, поэтому значения флагов сохраняются
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = defaultSQLitePath
	}
	if cfg.CookieSecret == "" {
		cfg.CookieSecret = defaultCookieSecret
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.RunAddress
	}

	if cfg.EnableEncryption && cfg.StatePassphrase == "" {
		return nil, errors.New("state encryption enabled but passphrase is empty")
	}

	return cfg, nil
}
