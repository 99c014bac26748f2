package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go-simpler.org/env"

	"alabs.org/doorbell-bridge/mqtt"
)

type Config struct {
	MQTTURI            string        `env:"MQTT_URI" default:"mqtt://broker.hivemq.com:1883"`
	MQTTUser           string        `env:"MQTT_USER"`
	MQTTPassword       string        `env:"MQTT_PASSWORD"`
	MQTTClientID       string        `env:"MQTT_CLIENT_ID"`
	MQTTConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" default:"30s"`

	ListenAddr      string `env:"LISTEN_ADDR" default:":5000"`
	DBConnectionURI string `env:"DB_CONNECTION_URI"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"console"`

	SessionBuffer int     `env:"SESSION_BUFFER" default:"16"`
	CommandRate   float64 `env:"COMMAND_RATE" default:"5"`
	CommandBurst  int     `env:"COMMAND_BURST" default:"10"`
}

// Read loads the process environment, optionally seeded from a .env file,
// without validating it so callers can apply overrides first.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().
			Str("event", "ConfigLoad").
			Msg("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := mqtt.ParseURI(cfg.MQTTURI); err != nil {
		return fmt.Errorf("MQTT_URI: %w", err)
	}
	if cfg.ListenAddr == "" {
		return errors.New("LISTEN_ADDR is required")
	}
	if cfg.MQTTConnectTimeout <= 0 {
		return errors.New("MQTT_CONNECT_TIMEOUT must be positive")
	}
	if cfg.SessionBuffer <= 0 {
		return errors.New("SESSION_BUFFER must be positive")
	}
	if cfg.CommandRate <= 0 {
		return errors.New("COMMAND_RATE must be positive")
	}
	if cfg.CommandBurst <= 0 {
		return errors.New("COMMAND_BURST must be positive")
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}
	return nil
}

func (cfg *Config) JournalEnabled() bool {
	return cfg.DBConnectionURI != ""
}
