package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLogLimit is how many activity log entries the dashboard requests
	DefaultLogLimit = 50
	// DefaultMessageTTL is how long a flash message stays visible
	DefaultMessageTTL = 5 * time.Second
	// DefaultMaxUploadSize caps the CSV file forwarded to the backend
	DefaultMaxUploadSize = 10 * 1024 * 1024
)

type Config struct {
	ServerPort  string
	Environment string
	// Backend REST API
	BackendURL     string
	BackendTimeout time.Duration
	// Dashboard behaviour
	LogLimit      int
	MessageTTL    time.Duration
	MaxUploadSize int64
	// Rate limiting for POST actions
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Logging
	Log LogConfig
}

// LogConfig selects zap's level and encoder
type LogConfig struct {
	Level  string
	Format string // json or console
}

// Load reads the .env file (if any) and the process environment
func Load() *Config {
	// Ignore a missing .env file, system env vars still apply
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		BackendURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8001"), "/"),
		BackendTimeout:    getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		LogLimit:          getEnvInt("LOG_LIMIT", DefaultLogLimit),
		MessageTTL:        getEnvDuration("MESSAGE_TTL", DefaultMessageTTL),
		MaxUploadSize:     int64(getEnvInt("MAX_UPLOAD_SIZE", DefaultMaxUploadSize)),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return eris.Wrapf(err, "config: parse BACKEND_URL %q", c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Errorf("config: BACKEND_URL must be http or https, got %q", c.BackendURL)
	}
	if u.Host == "" {
		return eris.Errorf("config: BACKEND_URL has no host: %q", c.BackendURL)
	}
	if c.LogLimit <= 0 {
		return eris.Errorf("config: LOG_LIMIT must be positive, got %d", c.LogLimit)
	}
	if c.MessageTTL <= 0 {
		return eris.Errorf("config: MESSAGE_TTL must be positive, got %s", c.MessageTTL)
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// InitLogger builds the global zap logger
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("invalid integer env var, using default",
			zap.String("key", key), zap.String("value", value), zap.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("5s") or plain milliseconds ("5000")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("invalid duration env var, using default",
			zap.String("key", key), zap.String("value", value), zap.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}
