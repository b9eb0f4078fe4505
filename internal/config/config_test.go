package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.RotationCooldown)
	assert.Equal(t, 5*time.Second, cfg.MetaSyncTimeout)
	assert.Equal(t, "flows", cfg.MetricsNamespace)
	assert.True(t, cfg.MetricsEnabled)
	assert.Empty(t, cfg.KMSKeyURI)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ROTATION_COOLDOWN_MINUTES", "30")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("META_PHONE_NUMBER_ID", "123456")

	cfg := Load()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 30*time.Minute, cfg.RotationCooldown)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "123456", cfg.MetaPhoneNumberID)
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}
