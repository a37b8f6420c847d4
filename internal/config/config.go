package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Privacy PrivacyConfig `yaml:"privacy"`
	History HistoryConfig `yaml:"history"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthToken      string   `yaml:"auth_token"`
	// MaxConnections caps concurrent WebSocket clients. Zero means no limit.
	MaxConnections int `yaml:"max_connections"`
}

type CaptureConfig struct {
	// Interval is the base delay between capture ticks; Jitter, when
	// non-zero, spreads each delay uniformly across interval±jitter.
	Interval         time.Duration `yaml:"interval"`
	Jitter           time.Duration `yaml:"jitter"`
	Retain           int           `yaml:"retain"`
	MaxApps          int           `yaml:"max_apps"`
	FailureThreshold int           `yaml:"failure_threshold"`
}

type PrivacyConfig struct {
	MaskAppNames bool     `yaml:"mask_app_names"`
	BlockedApps  []string `yaml:"blocked_apps"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Capture: CaptureConfig{
			Interval:         10 * time.Second,
			Jitter:           0,
			Retain:           2,
			MaxApps:          20,
			FailureThreshold: 3,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "avoda.db",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// LoadOrDefault loads the config file if it exists and falls back to the
// defaults when it doesn't.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// normalize clamps out-of-range values back to usable defaults rather than
// rejecting the file.
func (c *Config) normalize() {
	if c.Capture.Interval < time.Second {
		c.Capture.Interval = 10 * time.Second
	}
	if c.Capture.Jitter < 0 {
		c.Capture.Jitter = 0
	}
	if c.Capture.Jitter >= c.Capture.Interval {
		c.Capture.Jitter = c.Capture.Interval - time.Second
	}
	if c.Capture.Retain <= 0 {
		c.Capture.Retain = 2
	}
	if c.Capture.MaxApps < 0 {
		c.Capture.MaxApps = 0
	}
	if c.Capture.FailureThreshold <= 0 {
		c.Capture.FailureThreshold = 3
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		c.Server.Port = 8090
	}
	if c.Server.MaxConnections < 0 {
		c.Server.MaxConnections = 0
	}
}

// ApplyEnv overrides file values with AVODA_* environment variables, so a
// .env file or the service manager can adjust a deployment without editing
// the config file.
func (c *Config) ApplyEnv() {
	c.Server.Host = getEnv("AVODA_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("AVODA_PORT", c.Server.Port)
	c.Server.AuthToken = getEnv("AVODA_AUTH_TOKEN", c.Server.AuthToken)
	c.Capture.Interval = getEnvDuration("AVODA_CAPTURE_INTERVAL", c.Capture.Interval)
	c.History.Enabled = getEnvBool("AVODA_HISTORY_ENABLED", c.History.Enabled)
	c.History.Path = getEnv("AVODA_DB_PATH", c.History.Path)
	c.normalize()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
