package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "ENVIRONMENT", "BACKEND_URL", "BACKEND_TIMEOUT", "LOG_LIMIT",
		"MESSAGE_TTL", "MAX_UPLOAD_SIZE", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:8001", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 50, cfg.LogLimit)
	assert.Equal(t, 5*time.Second, cfg.MessageTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("MESSAGE_TTL", "2500")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("LOG_LIMIT", "20")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, "https://api.example.com", cfg.BackendURL, "trailing slash is trimmed")
	assert.Equal(t, 2500*time.Millisecond, cfg.MessageTTL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 20, cfg.LogLimit)
	assert.True(t, cfg.IsProduction())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOG_LIMIT", "lots")
	t.Setenv("MESSAGE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, DefaultLogLimit, cfg.LogLimit)
	assert.Equal(t, DefaultMessageTTL, cfg.MessageTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{BackendURL: "http://backend:8001", LogLimit: 50, MessageTTL: time.Second}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("Bad scheme", func(t *testing.T) {
		cfg := valid()
		cfg.BackendURL = "ftp://backend"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http or https")
	})

	t.Run("Missing host", func(t *testing.T) {
		cfg := valid()
		cfg.BackendURL = "http://"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Non-positive log limit", func(t *testing.T) {
		cfg := valid()
		cfg.LogLimit = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Non-positive message ttl", func(t *testing.T) {
		cfg := valid()
		cfg.MessageTTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	err := InitLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
