// Package config loads service configuration from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given. A missing default file is not an error.
const DefaultPath = "config.yml"

// Store backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Upstream modes
const (
	UpstreamTransportAPI = "transportapi"
	UpstreamStub         = "stub"
)

// Config is the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Planner   PlannerConfig   `yaml:"planner"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Stations  StationsConfig  `yaml:"stations"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Location is the loaded Planner.Timezone
	Location *time.Location `yaml:"-"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

type StoreConfig struct {
	Backend    string        `yaml:"backend" validate:"oneof=memory sqlite postgres redis"`
	SQLitePath string        `yaml:"sqlitePath" validate:"required_if=Backend sqlite"`
	RedisTTL   time.Duration `yaml:"redisTTL" validate:"min=0"`
}

type PlannerConfig struct {
	MaxWait  time.Duration `yaml:"maxWait" validate:"gt=0"`
	Workers  int           `yaml:"workers" validate:"min=1"`
	Timezone string        `yaml:"timezone" validate:"required"`
}

type UpstreamConfig struct {
	Mode    string        `yaml:"mode" validate:"oneof=transportapi stub"`
	BaseURL string        `yaml:"baseURL" validate:"required,url"`
	AppID   string        `yaml:"appID" validate:"required_if=Mode transportapi"`
	AppKey  string        `yaml:"appKey" validate:"required_if=Mode transportapi"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type StationsConfig struct {
	// File replaces the embedded catalogue when set
	File string `yaml:"file"`
}

type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerSecond int  `yaml:"perSecond" validate:"min=0"`
	PerDay    int  `yaml:"perDay" validate:"min=0"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 5002},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "journey_planner.db",
		},
		Planner: PlannerConfig{
			MaxWait:  60 * time.Minute,
			Workers:  16,
			Timezone: "Europe/London",
		},
		Upstream: UpstreamConfig{
			Mode:    UpstreamTransportAPI,
			BaseURL: "https://transportapi.com/v3/uk/public_journey.json",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 10,
			PerDay:    10000,
		},
	}
}

// Load reads path (if present), applies environment overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Planner.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Planner.Timezone, err)
	}
	cfg.Location = loc

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	if cfg.Server.Port, err = envInt("API_PORT", cfg.Server.Port); err != nil {
		return err
	}

	cfg.Store.Backend = getEnv("ROUTE_STORE", cfg.Store.Backend)
	cfg.Store.SQLitePath = getEnv("JP_SQLITE_PATH", cfg.Store.SQLitePath)
	if cfg.Store.RedisTTL, err = envDuration("ROUTE_STORE_TTL", cfg.Store.RedisTTL); err != nil {
		return err
	}

	if cfg.Planner.MaxWait, err = envDuration("MAX_WAIT", cfg.Planner.MaxWait); err != nil {
		return err
	}
	if cfg.Planner.Workers, err = envInt("PLANNER_WORKERS", cfg.Planner.Workers); err != nil {
		return err
	}
	cfg.Planner.Timezone = getEnv("TIMEZONE", cfg.Planner.Timezone)

	cfg.Upstream.Mode = getEnv("UPSTREAM_MODE", cfg.Upstream.Mode)
	cfg.Upstream.BaseURL = getEnv("TRANSPORT_API_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.AppID = getEnv("TRANSPORT_API_APP_ID", cfg.Upstream.AppID)
	cfg.Upstream.AppKey = getEnv("TRANSPORT_API_APP_KEY", cfg.Upstream.AppKey)
	if cfg.Upstream.Timeout, err = envDuration("TRANSPORT_API_TIMEOUT", cfg.Upstream.Timeout); err != nil {
		return err
	}

	cfg.Stations.File = getEnv("STATIONS_FILE", cfg.Stations.File)

	cfg.RateLimit.Enabled = getEnv("ENABLE_RATE_LIMIT", strconv.FormatBool(cfg.RateLimit.Enabled)) == "true"
	if cfg.RateLimit.PerSecond, err = envInt("RATE_LIMIT_PER_SECOND", cfg.RateLimit.PerSecond); err != nil {
		return err
	}
	if cfg.RateLimit.PerDay, err = envInt("RATE_LIMIT_PER_DAY", cfg.RateLimit.PerDay); err != nil {
		return err
	}

	return nil
}

func envInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
