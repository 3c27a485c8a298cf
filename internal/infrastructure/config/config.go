package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Bridge    BridgeConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`

	// PublicOrigin is the origin the host application is served from; it is
	// always in the trusted set.
	PublicOrigin string `envconfig:"PUBLIC_ORIGIN" default:"http://localhost:3000" yaml:"public_origin" toml:"public_origin"`
}

// BridgeConfig holds the peer channel configuration.
type BridgeConfig struct {
	// PeerTarget is where the embedded agent UI lives: a root-relative
	// path for a same-origin proxy, or an absolute URL for a
	// cross-origin peer.
	PeerTarget string `envconfig:"BRIDGE_PEER_TARGET" default:"http://localhost:5000" yaml:"peer_target" toml:"peer_target"`

	// ProbeInterval is the fixed health-check cadence.
	ProbeInterval time.Duration `envconfig:"BRIDGE_PROBE_INTERVAL" default:"10s" yaml:"probe_interval" toml:"probe_interval"`

	// LogLimit bounds the message log; 0 means unbounded.
	LogLimit int `envconfig:"BRIDGE_LOG_LIMIT" default:"0" yaml:"log_limit" toml:"log_limit"`

	// Initial shared context, pushed to the peer on the first handshake.
	AgentName     string `envconfig:"BRIDGE_AGENT_NAME" yaml:"agent_name" toml:"agent_name"`
	SessionToken  string `envconfig:"BRIDGE_SESSION_TOKEN" yaml:"session_token" toml:"session_token"`
	UserID        string `envconfig:"BRIDGE_USER_ID" yaml:"user_id" toml:"user_id"`
	ApplicationID string `envconfig:"BRIDGE_APPLICATION_ID" yaml:"application_id" toml:"application_id"`
	ControlID     string `envconfig:"BRIDGE_CONTROL_ID" yaml:"control_id" toml:"control_id"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables, optionally layered
// over a config file named by CONFIG_FILE. Environment wins over file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFile(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			PublicOrigin: "http://localhost:3000",
		},
		Bridge: BridgeConfig{
			PeerTarget:    "http://localhost:5000",
			ProbeInterval: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// InitialContext returns the configured seed context as a key-value map,
// omitting unset keys.
func (b BridgeConfig) InitialContext() map[string]string {
	ctx := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			ctx[key] = value
		}
	}
	set("agentName", b.AgentName)
	set("sessionToken", b.SessionToken)
	set("userId", b.UserID)
	set("applicationId", b.ApplicationID)
	set("controlId", b.ControlID)
	return ctx
}
