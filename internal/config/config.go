package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/comoestou/internal/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "config.yaml"
	insecureSecretKey = "change_me_in_production"
	minSecretKeyBytes = 32
)

type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type GoogleConfig struct {
	ClientID string `yaml:"clientID"`
	JWKSURL  string `yaml:"jwksURL"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Port            string       `yaml:"port"`
	SecretKey       string       `yaml:"secretKey"`
	Timezone        string       `yaml:"timezone"`
	DefaultLanguage string       `yaml:"defaultLanguage"`
	CookieSecure    bool         `yaml:"cookieSecure"`
	DB              DBConfig     `yaml:"db"`
	Redis           RedisConfig  `yaml:"redis"`
	Google          GoogleConfig `yaml:"google"`
	Log             LogConfig    `yaml:"log"`
}

func Defaults() Config {
	return Config{
		Port:            "8080",
		Timezone:        "UTC",
		DefaultLanguage: "pt",
		DB: DBConfig{
			Driver: "sqlite",
			Path:   filepath.Join("data", "comoestou.db"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// With an empty path, config.yaml is used when present. Only storage is
// validated here; serving also needs Validate.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	if err := ValidateStorage(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{key: "PORT", target: &cfg.Port},
		{key: "SECRET_KEY", target: &cfg.SecretKey},
		{key: "TZ", target: &cfg.Timezone},
		{key: "DEFAULT_LANGUAGE", target: &cfg.DefaultLanguage},
		{key: "DB_DRIVER", target: &cfg.DB.Driver},
		{key: "DB_PATH", target: &cfg.DB.Path},
		{key: "DATABASE_URL", target: &cfg.DB.DSN},
		{key: "REDIS_ADDR", target: &cfg.Redis.Addr},
		{key: "REDIS_PASSWORD", target: &cfg.Redis.Password},
		{key: "GOOGLE_CLIENT_ID", target: &cfg.Google.ClientID},
		{key: "GOOGLE_JWKS_URL", target: &cfg.Google.JWKSURL},
		{key: "LOG_LEVEL", target: &cfg.Log.Level},
		{key: "LOG_FILE", target: &cfg.Log.File},
	}
	for _, override := range overrides {
		if value := os.Getenv(override.key); value != "" {
			*override.target = value
		}
	}
	if value := os.Getenv("COOKIE_SECURE"); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			cfg.CookieSecure = parsed
		}
	}
}

// Validate checks what serving needs. Offline commands that never sign
// sessions may skip the secret check with ValidateStorage.
func Validate(cfg Config) error {
	if err := ValidateStorage(cfg); err != nil {
		return err
	}
	if _, err := SecretKey(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required")
	}
	return nil
}

func ValidateStorage(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.DB.Driver)) {
	case "", "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("config: db.path is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return errors.New("config: db.dsn is required for postgres (set DATABASE_URL)")
		}
	default:
		return fmt.Errorf("config: unsupported db.driver %q", cfg.DB.Driver)
	}
	return nil
}

func SecretKey(cfg Config) ([]byte, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errors.New("config: secretKey is required (set SECRET_KEY)")
	}
	if secret == insecureSecretKey {
		return nil, errors.New("config: secretKey uses the insecure placeholder")
	}
	if len(secret) < minSecretKeyBytes {
		return nil, fmt.Errorf("config: secretKey must be at least %d bytes", minSecretKeyBytes)
	}
	return []byte(secret), nil
}

// Location loads the configured timezone, falling back to UTC.
func (cfg Config) Location() *time.Location {
	name := strings.TrimSpace(cfg.Timezone)
	if name == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("invalid timezone, falling back to UTC", "timezone", name)
		return time.UTC
	}
	return location
}
