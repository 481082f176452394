package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Get returns the environment variable or a fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt reads an integer environment variable, keeping the fallback on
// unset or unparseable values.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetFloat reads a float environment variable, keeping the fallback on
// unset or unparseable values.
func GetFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	// Path is the embedded SQLite file. URL, when set, points at PostgreSQL
	// and is used for the shared travel cache.
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type MapboxConfig struct {
	APIKey string  `yaml:"api_key"`
	RPS    float64 `yaml:"rps"`
	Burst  int     `yaml:"burst"`
}

type OptimizerConfig struct {
	Workers      int    `yaml:"workers"`
	AlignMinutes int    `yaml:"align_minutes"`
	Timezone     string `yaml:"timezone"`
}

type SeedConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Mapbox    MapboxConfig    `yaml:"mapbox"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Seed      SeedConfig      `yaml:"seed"`
}

// Default returns the built-in configuration for a local run.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "data/app.db"},
		Mapbox:   MapboxConfig{RPS: 5, Burst: 10},
		Optimizer: OptimizerConfig{
			Workers:  5,
			Timezone: "Europe/Copenhagen",
		},
		Seed: SeedConfig{Path: "data/seeds/demo.json"},
	}
}

// Load layers configuration: defaults, then the YAML file at path (a missing
// file is not an error), then environment variables on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus environment carry a file-less deployment.
		case err != nil:
			return Config{}, fmt.Errorf("load config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("load config: parse %s: %w", path, err)
			}
		}
	}

	cfg.Server.Port = Get("PORT", cfg.Server.Port)
	cfg.Database.Path = Get("DB_PATH", cfg.Database.Path)
	cfg.Database.URL = Get("DATABASE_URL", cfg.Database.URL)
	cfg.Redis.URL = Get("REDIS_URL", cfg.Redis.URL)
	cfg.Mapbox.APIKey = Get("MAPBOX_API_KEY", cfg.Mapbox.APIKey)
	cfg.Mapbox.RPS = GetFloat("MAPBOX_RPS", cfg.Mapbox.RPS)
	cfg.Mapbox.Burst = GetInt("MAPBOX_BURST", cfg.Mapbox.Burst)
	cfg.Optimizer.Workers = GetInt("OPTIMIZER_WORKERS", cfg.Optimizer.Workers)
	cfg.Optimizer.AlignMinutes = GetInt("ALIGN_MINUTES", cfg.Optimizer.AlignMinutes)
	cfg.Optimizer.Timezone = Get("TIMEZONE", cfg.Optimizer.Timezone)
	cfg.Seed.Path = Get("SEED_PATH", cfg.Seed.Path)

	return cfg, nil
}
