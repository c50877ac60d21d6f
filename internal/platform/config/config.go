// Package config loads server settings from BABYTURT_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the tunable parameters of the server process.
// The tagging mechanic itself has no knobs besides AimUntag.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	StoreDriver string `env:"STORE" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/babyturt.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	TickRate     time.Duration `env:"TICK_RATE" envDefault:"50ms"`
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"30s"`
	EventLogSize int           `env:"EVENT_LOG_SIZE" envDefault:"4096"`

	// Untag by aiming an unnamed name tag, in addition to the interaction toggle.
	AimUntag bool `env:"AIM_UNTAG" envDefault:"true"`

	ClientSendBuffer    int `env:"CLIENT_SEND_BUFFER" envDefault:"64"`
	BroadcastBuffer     int `env:"BROADCAST_BUFFER" envDefault:"256"`
	MaxActionsPerSecond int `env:"MAX_ACTIONS_PER_SECOND" envDefault:"20"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "BABYTURT_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: BABYTURT_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.StoreDriver)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %s", c.TickRate)
	}
	if c.SaveInterval <= 0 {
		return fmt.Errorf("config: save interval must be positive, got %s", c.SaveInterval)
	}
	if c.ClientSendBuffer <= 0 || c.BroadcastBuffer <= 0 {
		return fmt.Errorf("config: channel buffers must be positive")
	}
	return nil
}
