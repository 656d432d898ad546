// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Environment always wins, so container
// deployments can skip the file entirely.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	DBMigrate   bool   `yaml:"db_migrate"`
	RedisURL    string `yaml:"redis_url"`
	RedisHost   string `yaml:"redis_host"`
	RedisPort   string `yaml:"redis_port"`
	RateRPS     int    `yaml:"rate_rps"`
	RateBurst   int    `yaml:"rate_burst"`
}

// Load reads CONFIG_FILE if set (or config.yaml when present), then applies
// env overrides and defaults.
func Load() (Config, error) {
	cfg := Config{Port: "8080", DBMigrate: true, RedisHost: "localhost", RedisPort: "6379"}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.RedisHost, "REDIS_HOST")
	overrideString(&cfg.RedisPort, "REDIS_PORT")
	overrideInt(&cfg.RateRPS, "RATE_RPS")
	overrideInt(&cfg.RateBurst, "RATE_BURST")
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		cfg.DBMigrate = v != "false"
	}
	return cfg, nil
}

// RedisAddr resolves the cache address, preferring REDIS_URL.
func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
