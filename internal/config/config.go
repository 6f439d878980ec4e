package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath         = "CONFIG_PATH"
	EnvDBConnection       = "DB_CONNECTION"
	EnvSystemID           = "SYSTEM_ID"
	EnvCatalogPath        = "CATALOG_PATH"
	EnvSaltKey            = "SALT_KEY"
	EnvBootstrapRedisAddr = "BOOTSTRAP_REDIS_ADDR"
	EnvBootstrapRedisPass = "BOOTSTRAP_REDIS_PASSWORD"
	EnvBootstrapRedisDB   = "BOOTSTRAP_REDIS_DB"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// DatabaseConfig describes a database either by DSN or by its parts.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	SSLMode  string `yaml:"ssl-mode"`
}

// LoadDatabaseDSN reads the database DSN from the environment or the YAML config file.
// A missing config file is reported as ErrMissingDatabaseDSN so callers can run without a store.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string         `yaml:"database-dsn"`
		Database    DatabaseConfig `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrMissingDatabaseDSN
		}
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	if strings.TrimSpace(cfg.Database.Type) != "" || strings.TrimSpace(cfg.Database.Host) != "" {
		return BuildDSN(cfg.Database)
	}
	return "", ErrMissingDatabaseDSN
}

// ServerConfig holds the status server settings.
type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

// LoadServerConfig loads server settings, tolerating a missing config file.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	var result ServerConfig
	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		if errors.Is(errRead, os.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("read config file: %w", errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &result); errUnmarshal != nil {
		return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	return result, nil
}

// RedisLockConfig configures the optional cross-replica bootstrap lock.
type RedisLockConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisLockConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// BootstrapConfig holds settings for seeding default data.
type BootstrapConfig struct {
	// SystemID keys the system organization and stamps audit fields. Empty is allowed.
	SystemID    string          `yaml:"system-id"`
	CatalogPath string          `yaml:"catalog-path"`
	SaltKey     string          `yaml:"salt-key"`
	RedisLock   RedisLockConfig `yaml:"redis-lock"`
}

// defaultLockTTL bounds how long a crashed replica can hold the bootstrap lock.
const defaultLockTTL = 30 * time.Second

// defaultLockPrefix namespaces the bootstrap lock key.
const defaultLockPrefix = "proxyseed"

// LoadBootstrapConfig loads bootstrap settings from the YAML config file with env overrides.
func LoadBootstrapConfig(configPath string) (BootstrapConfig, error) {
	// fileConfig maps the YAML fields needed for bootstrap settings.
	type fileConfig struct {
		Bootstrap BootstrapConfig `yaml:"bootstrap"`
	}

	var result BootstrapConfig

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return result, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
		result = cfg.Bootstrap
	case !errors.Is(errRead, os.ErrNotExist):
		return result, fmt.Errorf("read config file: %w", errRead)
	}

	if systemID, ok := os.LookupEnv(EnvSystemID); ok {
		result.SystemID = strings.TrimSpace(systemID)
	}
	if catalogPath := strings.TrimSpace(os.Getenv(EnvCatalogPath)); catalogPath != "" {
		result.CatalogPath = catalogPath
	}
	if saltKey := strings.TrimSpace(os.Getenv(EnvSaltKey)); saltKey != "" {
		result.SaltKey = saltKey
	}
	if addr := strings.TrimSpace(os.Getenv(EnvBootstrapRedisAddr)); addr != "" {
		result.RedisLock.Addr = addr
	}
	if password := strings.TrimSpace(os.Getenv(EnvBootstrapRedisPass)); password != "" {
		result.RedisLock.Password = password
	}
	if rawDB := strings.TrimSpace(os.Getenv(EnvBootstrapRedisDB)); rawDB != "" {
		redisDB, errParse := strconv.Atoi(rawDB)
		if errParse != nil {
			return result, fmt.Errorf("parse %s: %w", EnvBootstrapRedisDB, errParse)
		}
		result.RedisLock.DB = redisDB
	}

	if result.RedisLock.DB < 0 {
		result.RedisLock.DB = 0
	}
	if strings.TrimSpace(result.RedisLock.Prefix) == "" {
		result.RedisLock.Prefix = defaultLockPrefix
	}
	if result.RedisLock.TTL <= 0 {
		result.RedisLock.TTL = defaultLockTTL
	}
	return result, nil
}
