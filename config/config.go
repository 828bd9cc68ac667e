// Package config loads client configuration from YAML and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by FromEnv. They override file values.
const (
	EnvBaseURL        = "STOREFRONT_BASE_URL"
	EnvAndroidBaseURL = "STOREFRONT_ANDROID_BASE_URL"
	EnvTimeout        = "STOREFRONT_TIMEOUT"
	EnvSessionFile    = "STOREFRONT_SESSION_FILE"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
)

// Config holds everything needed to construct a storefront client.
type Config struct {
	// BaseURL is the backend API base URL.
	BaseURL string
	// AndroidBaseURL replaces BaseURL when Platform is "android"; Android
	// emulators cannot reach the host loopback directly.
	AndroidBaseURL string
	// Platform selects the base URL variant ("android", "ios", "").
	Platform string
	// Timeout applies to every HTTP call.
	Timeout time.Duration
	// RateLimit caps outgoing requests per second; zero disables the gate.
	RateLimit float64
	// RateBurst is the limiter burst size when RateLimit is set.
	RateBurst int
	// SessionFile is the path of the file-backed session store.
	SessionFile string
	// RedisURL selects the Redis session backend when set.
	RedisURL string
	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string
}

// fileConfig is the YAML shape; timeout is a duration string ("30s").
type fileConfig struct {
	BaseURL        string  `yaml:"base_url"`
	AndroidBaseURL string  `yaml:"android_base_url"`
	Platform       string  `yaml:"platform"`
	Timeout        string  `yaml:"timeout"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst"`
	SessionFile    string  `yaml:"session_file"`
	RedisURL       string  `yaml:"redis_url"`
	LogLevel       string  `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:3000",
		AndroidBaseURL: "http://10.0.2.2:3000",
		Timeout:        30 * time.Second,
		RateBurst:      1,
		LogLevel:       "info",
	}
}

// Load reads cfg from a YAML file and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.AndroidBaseURL != "" {
		cfg.AndroidBaseURL = file.AndroidBaseURL
	}
	if file.Platform != "" {
		cfg.Platform = file.Platform
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("config: parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if file.RateLimit != 0 {
		cfg.RateLimit = file.RateLimit
	}
	if file.RateBurst != 0 {
		cfg.RateBurst = file.RateBurst
	}
	if file.SessionFile != "" {
		cfg.SessionFile = file.SessionFile
	}
	if file.RedisURL != "" {
		cfg.RedisURL = file.RedisURL
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}

	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults plus environment
// overrides when the file is missing or unreadable.
func LoadOrDefault(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
		cfg.FromEnv()
	}
	return cfg
}

// FromEnv applies environment variable overrides in place.
func (c *Config) FromEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAndroidBaseURL); v != "" {
		c.AndroidBaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.SessionFile = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EffectiveBaseURL()) == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative")
	}
	return nil
}

// EffectiveBaseURL resolves the platform-specific base URL.
func (c *Config) EffectiveBaseURL() string {
	if c.Platform == "android" && c.AndroidBaseURL != "" {
		return c.AndroidBaseURL
	}
	return c.BaseURL
}

// TrackingURL derives the websocket endpoint of the tracking namespace from
// the effective base URL.
func (c *Config) TrackingURL() string {
	base := strings.TrimRight(c.EffectiveBaseURL(), "/")
	switch {
	case strings.HasPrefix(base, "https"):
		base = "wss" + base[len("https"):]
	case strings.HasPrefix(base, "http"):
		base = "ws" + base[len("http"):]
	}
	return base + "/tracking"
}
