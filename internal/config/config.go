// Package config loads the worldsim configuration from a YAML file with
// WORLDSIM_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/world"
)

// Config is the complete process configuration.
type Config struct {
	Database  DatabaseConfig    `yaml:"database"`
	API       APIConfig         `yaml:"api"`
	Scheduler scheduler.Options `yaml:"scheduler"`
	Seed      int64             `yaml:"seed"`
	Worlds    WorldsConfig      `yaml:"worlds"`
	Economy   EconomyConfig     `yaml:"economy"`
	Weather   WeatherConfig     `yaml:"weather"`
	Entropy   EntropyConfig     `yaml:"entropy"`
	LogLevel  string            `yaml:"log_level"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type APIConfig struct {
	Port        int      `yaml:"port"`
	AdminKey    string   `yaml:"admin_key"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// WorldsConfig controls the worlds seeded into an empty database.
type WorldsConfig struct {
	Count          int             `yaml:"count"`
	AgentsPerWorld int             `yaml:"agents_per_world"`
	Speed          string          `yaml:"speed"`
	Climates       []string        `yaml:"climates"`
	Locations      world.GenConfig `yaml:"locations"`
}

type EconomyConfig struct {
	SyncURL string `yaml:"sync_url"`
}

type WeatherConfig struct {
	APIKey   string `yaml:"api_key"`
	Location string `yaml:"location"`
}

type EntropyConfig struct {
	RandomOrgKey string `yaml:"random_org_key"`
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path uses defaults and the environment only.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Defaults returns the stock configuration.
func Defaults() Config {
	return Config{
		Database:  DatabaseConfig{Path: "data/worldsim.db"},
		API:       APIConfig{Port: 8080},
		Scheduler: scheduler.DefaultOptions(),
		Worlds: WorldsConfig{
			Count:          3,
			AgentsPerWorld: 40,
			Speed:          "normal",
			Climates:       []string{"temperate", "arid", "mediterranean"},
			Locations:      world.DefaultGenConfig(),
		},
		LogLevel: "info",
	}
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Worlds.Count < 0 || c.Worlds.AgentsPerWorld < 0 {
		return fmt.Errorf("worlds.count and worlds.agents_per_world must not be negative")
	}
	if _, err := world.ParseSpeed(c.Worlds.Speed); err != nil {
		return fmt.Errorf("worlds.speed: %w", err)
	}
	for _, name := range c.Worlds.Climates {
		if _, err := world.ParseClimate(name); err != nil {
			return fmt.Errorf("worlds.climates: %w", err)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func (c *Config) applyEnv() error {
	c.Database.Path = envOrDefault("WORLDSIM_DB_PATH", c.Database.Path)
	c.API.AdminKey = envOrDefault("WORLDSIM_ADMIN_KEY", c.API.AdminKey)
	c.Economy.SyncURL = envOrDefault("WORLDSIM_SYNC_URL", c.Economy.SyncURL)
	c.Weather.APIKey = envOrDefault("WORLDSIM_WEATHER_API_KEY", c.Weather.APIKey)
	c.Weather.Location = envOrDefault("WORLDSIM_WEATHER_LOCATION", c.Weather.Location)
	c.Entropy.RandomOrgKey = envOrDefault("WORLDSIM_RANDOM_ORG_KEY", c.Entropy.RandomOrgKey)
	c.LogLevel = envOrDefault("WORLDSIM_LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.API.CORSOrigins = strings.Split(v, ",")
	}

	var err error
	if c.API.Port, err = envInt("WORLDSIM_PORT", c.API.Port); err != nil {
		return err
	}
	if c.Worlds.Count, err = envInt("WORLDSIM_WORLDS", c.Worlds.Count); err != nil {
		return err
	}
	if c.Scheduler.Workers, err = envInt("WORLDSIM_WORKERS", c.Scheduler.Workers); err != nil {
		return err
	}
	if v := os.Getenv("WORLDSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WORLDSIM_SEED: %w", err)
		}
		c.Seed = seed
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
