// Package config loads groundlink configuration from an optional YAML
// file with environment-variable and built-in fallbacks.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults, used when neither the config file nor the
// environment provides a value.
const (
	DefaultURL            = "ws://localhost:8000/ws"
	DefaultHealthURL      = "http://localhost:8000/health"
	DefaultBaseDelay      = 2 * time.Second
	DefaultMaxAttempts    = 5
	DefaultRequestTimeout = 10 * time.Second
	DefaultSmoothing      = 0.1
	DefaultTickRate       = 16 * time.Millisecond
	DefaultBaudRate       = 9600
)

type Config struct {
	Station   StationConfig   `yaml:"station"`
	Serial    SerialConfig    `yaml:"serial"`
	Render    RenderConfig    `yaml:"render"`
	Recording RecordingConfig `yaml:"recording"`
}

type StationConfig struct {
	URL            string        `yaml:"url"`
	HealthURL      string        `yaml:"health_url"`
	BaseDelay      time.Duration `yaml:"reconnect_base_delay"`
	MaxAttempts    int           `yaml:"reconnect_max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

type RenderConfig struct {
	Smoothing float64       `yaml:"smoothing"`
	TickRate  time.Duration `yaml:"tick_rate"`
}

type RecordingConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

// Load reads the config file at path, or returns defaults when path is
// empty. Missing values fall back to env vars, then to the built-ins.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.Station.URL == "" {
		cfg.Station.URL = envOr("GROUNDLINK_URL", DefaultURL)
	}
	if cfg.Station.HealthURL == "" {
		cfg.Station.HealthURL = envOr("GROUNDLINK_HEALTH_URL", DefaultHealthURL)
	}
	if cfg.Station.BaseDelay <= 0 {
		cfg.Station.BaseDelay = DefaultBaseDelay
	}
	if cfg.Station.MaxAttempts <= 0 {
		cfg.Station.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Station.RequestTimeout <= 0 {
		cfg.Station.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Serial.BaudRate <= 0 {
		cfg.Serial.BaudRate = DefaultBaudRate
	}
	if cfg.Render.Smoothing <= 0 || cfg.Render.Smoothing > 1 {
		cfg.Render.Smoothing = DefaultSmoothing
	}
	if cfg.Render.TickRate <= 0 {
		cfg.Render.TickRate = DefaultTickRate
	}
	if cfg.Recording.Enable && cfg.Recording.Path == "" {
		return Config{}, fmt.Errorf("recording.path is required when recording.enable is set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
