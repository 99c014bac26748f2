package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MQTT_URI", "MQTT_USER", "MQTT_PASSWORD", "MQTT_CLIENT_ID", "MQTT_CONNECT_TIMEOUT",
		"LISTEN_ADDR", "DB_CONNECTION_URI", "LOG_LEVEL", "LOG_FORMAT",
		"SESSION_BUFFER", "COMMAND_RATE", "COMMAND_BURST",
	} {
		// Setenv restores the original value on cleanup.
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestRead_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Read()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "mqtt://broker.hivemq.com:1883", cfg.MQTTURI)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.MQTTConnectTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 16, cfg.SessionBuffer)
	assert.Equal(t, 5.0, cfg.CommandRate)
	assert.Equal(t, 10, cfg.CommandBurst)
	assert.False(t, cfg.JournalEnabled())
}

func TestRead_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_URI", "mqtts://broker.example.org:8883")
	t.Setenv("MQTT_USER", "doorbell")
	t.Setenv("MQTT_PASSWORD", "secret")
	t.Setenv("MQTT_CONNECT_TIMEOUT", "5s")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("DB_CONNECTION_URI", "user:pass@tcp(db:3306)/doorbell")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SESSION_BUFFER", "64")

	cfg, err := Read()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "mqtts://broker.example.org:8883", cfg.MQTTURI)
	assert.Equal(t, "doorbell", cfg.MQTTUser)
	assert.Equal(t, "secret", cfg.MQTTPassword)
	assert.Equal(t, 5*time.Second, cfg.MQTTConnectTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 64, cfg.SessionBuffer)
	assert.True(t, cfg.JournalEnabled())
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envName string
		value   string
		wantErr string
	}{
		{"bad scheme", "MQTT_URI", "http://broker.example.org", "MQTT_URI"},
		{"zero buffer", "SESSION_BUFFER", "0", "SESSION_BUFFER must be positive"},
		{"negative rate", "COMMAND_RATE", "-1", "COMMAND_RATE must be positive"},
		{"zero burst", "COMMAND_BURST", "0", "COMMAND_BURST must be positive"},
		{"unknown log format", "LOG_FORMAT", "xml", "LOG_FORMAT must be console or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envName, tt.value)

			cfg, err := Read()
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRead_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_CONNECT_TIMEOUT", "soon")

	_, err := Read()
	assert.Error(t, err)
}
