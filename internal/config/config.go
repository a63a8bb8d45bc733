package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL       string `yaml:"ttl"`
		TimeLimit string `yaml:"time_limit"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"quiz"`
	Auth struct {
		Secret     string `yaml:"secret"`
		TokenTTL   string `yaml:"token_ttl"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Leaderboard struct {
		Size     int    `yaml:"size"`
		Debounce string `yaml:"debounce"`
	} `yaml:"leaderboard"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads YAML config from path. AUTH_SECRET, when set, overrides the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		cfg.Auth.Secret = secret
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves the quiz timezone; empty means the server's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Quiz.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Quiz.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quiz timezone: %w", err)
	}
	return loc, nil
}
