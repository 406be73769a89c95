// Package config provides configuration management for the application
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Labels   LabelConfig    `yaml:"labels"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string `yaml:"port"`
	// TemplatesDir overrides the embedded templates when set
	TemplatesDir string `yaml:"templates_dir"`
}

// UpstreamConfig describes the reservation REST API this frontend talks to
type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
	// MinePath is the fixed "my reservations" read endpoint
	MinePath string `yaml:"mine_path"`
	// CancelPath is the base path; the reservation id is appended as the last segment
	CancelPath string `yaml:"cancel_path"`
	// MemberPath answers 200 with the member's name for a valid login cookie
	MemberPath string        `yaml:"member_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AuthConfig controls the login check in front of the reservation pages
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// CookieName is the upstream's login cookie
	CookieName string `yaml:"cookie_name"`
	// LoginURL is where members without a valid login are sent
	LoginURL string `yaml:"login_url"`
}

// LabelConfig holds the display labels used when rendering reservations
type LabelConfig struct {
	// Confirmed is the one status value that denotes a confirmed reservation
	Confirmed string `yaml:"confirmed"`
	// WaitingFormat must contain exactly one %d verb for the rank
	WaitingFormat string `yaml:"waiting_format"`
	CancelText    string `yaml:"cancel_text"`
}

// RedisConfig holds Redis/Valkey configuration
type RedisConfig struct {
	Enabled bool `yaml:"enabled"`
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string `yaml:"uri"`
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	// CancelLockTTL bounds how long a pending cancellation blocks duplicates
	CancelLockTTL time.Duration `yaml:"cancel_lock_ttl"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Upstream: UpstreamConfig{
			BaseURL:    "http://localhost:8081",
			MinePath:   "/reservations/mine",
			CancelPath: "/reservations",
			MemberPath: "/login/member",
			Timeout:    10 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:    true,
			CookieName: "token",
			LoginURL:   "/login",
		},
		Labels: LabelConfig{
			Confirmed:     "예약",
			WaitingFormat: "%d번째 예약대기",
			CancelText:    "취소",
		},
		Redis: RedisConfig{
			Host:          "localhost",
			Port:          "6379",
			KeyPrefix:     "reservation-web:",
			CancelLockTTL: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (env wins)
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields that have a matching environment variable
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.TemplatesDir = getEnv("TEMPLATES_DIR", cfg.Server.TemplatesDir)

	cfg.Upstream.BaseURL = getEnv("RESERVATION_API_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.MinePath = getEnv("RESERVATION_MINE_PATH", cfg.Upstream.MinePath)
	cfg.Upstream.CancelPath = getEnv("RESERVATION_CANCEL_PATH", cfg.Upstream.CancelPath)
	cfg.Upstream.MemberPath = getEnv("RESERVATION_MEMBER_PATH", cfg.Upstream.MemberPath)
	cfg.Upstream.Timeout = getEnvDuration("UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)

	cfg.Labels.Confirmed = getEnv("RESERVATION_CONFIRMED_LABEL", cfg.Labels.Confirmed)
	cfg.Labels.WaitingFormat = getEnv("RESERVATION_WAITING_FORMAT", cfg.Labels.WaitingFormat)
	cfg.Labels.CancelText = getEnv("RESERVATION_CANCEL_TEXT", cfg.Labels.CancelText)

	cfg.Auth.Enabled = getEnvBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.CookieName = getEnv("AUTH_COOKIE_NAME", cfg.Auth.CookieName)
	cfg.Auth.LoginURL = getEnv("AUTH_LOGIN_URL", cfg.Auth.LoginURL)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.URI = getEnv("REDIS_URI", cfg.Redis.URI)
	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Username = getEnv("REDIS_USERNAME", cfg.Redis.Username)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", cfg.Redis.KeyPrefix)
	cfg.Redis.CancelLockTTL = getEnvDuration("REDIS_CANCEL_LOCK_TTL", cfg.Redis.CancelLockTTL)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

// Validate checks that the configuration can be used to serve requests
func (c Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base URL %q", c.Upstream.BaseURL)
	}
	for _, p := range []string{c.Upstream.MinePath, c.Upstream.CancelPath, c.Upstream.MemberPath} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("upstream paths must start with '/'")
		}
	}
	if c.Auth.Enabled && (c.Auth.CookieName == "" || c.Auth.LoginURL == "") {
		return errors.New("auth requires a cookie name and a login URL")
	}
	if c.Labels.Confirmed == "" {
		return errors.New("confirmed label must not be empty")
	}
	if strings.Count(c.Labels.WaitingFormat, "%d") != 1 {
		return fmt.Errorf("waiting format %q must contain exactly one %%d", c.Labels.WaitingFormat)
	}
	return nil
}

// MineURL returns the absolute URL of the "my reservations" endpoint
func (u UpstreamConfig) MineURL() string {
	return strings.TrimRight(u.BaseURL, "/") + u.MinePath
}

// MemberURL returns the absolute URL of the login check endpoint
func (u UpstreamConfig) MemberURL() string {
	return strings.TrimRight(u.BaseURL, "/") + u.MemberPath
}

// CancelURL returns the absolute URL prefix for reservation deletes
func (u UpstreamConfig) CancelURL() string {
	return strings.TrimRight(u.BaseURL, "/") + strings.TrimRight(u.CancelPath, "/")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool retrieves a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

// getEnvDuration accepts Go duration strings ("15s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
