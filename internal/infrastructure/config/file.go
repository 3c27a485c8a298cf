package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for file decoding. Decoding into a separate
// struct keeps env-set values authoritative: only fields the file actually
// sets are copied over defaults, and only when the env left them at their
// default.
type fileConfig struct {
	Server    *ServerConfig    `yaml:"server" toml:"server"`
	Bridge    *BridgeConfig    `yaml:"bridge" toml:"bridge"`
	Logging   *LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit *RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// applyFile layers an optional config file under the environment. The file
// format follows the extension: .yaml/.yml or .toml.
func applyFile(cfg *Config) error {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	defaults := Default()
	if fc.Server != nil {
		overlayServer(&cfg.Server, fc.Server, &defaults.Server)
	}
	if fc.Bridge != nil {
		overlayBridge(&cfg.Bridge, fc.Bridge, &defaults.Bridge)
	}
	if fc.Logging != nil {
		overlayLogging(&cfg.Logging, fc.Logging, &defaults.Logging)
	}
	if fc.RateLimit != nil {
		overlayRateLimit(&cfg.RateLimit, fc.RateLimit, &defaults.RateLimit)
	}
	return nil
}

func overlayServer(dst, file, def *ServerConfig) {
	if dst.Port == def.Port && file.Port != "" {
		dst.Port = file.Port
	}
	if dst.Host == def.Host && file.Host != "" {
		dst.Host = file.Host
	}
	if dst.PublicOrigin == def.PublicOrigin && file.PublicOrigin != "" {
		dst.PublicOrigin = file.PublicOrigin
	}
}

func overlayBridge(dst, file, def *BridgeConfig) {
	if dst.PeerTarget == def.PeerTarget && file.PeerTarget != "" {
		dst.PeerTarget = file.PeerTarget
	}
	if dst.ProbeInterval == def.ProbeInterval && file.ProbeInterval != 0 {
		dst.ProbeInterval = file.ProbeInterval
	}
	if dst.LogLimit == def.LogLimit && file.LogLimit != 0 {
		dst.LogLimit = file.LogLimit
	}
	if dst.AgentName == "" {
		dst.AgentName = file.AgentName
	}
	if dst.SessionToken == "" {
		dst.SessionToken = file.SessionToken
	}
	if dst.UserID == "" {
		dst.UserID = file.UserID
	}
	if dst.ApplicationID == "" {
		dst.ApplicationID = file.ApplicationID
	}
	if dst.ControlID == "" {
		dst.ControlID = file.ControlID
	}
}

func overlayLogging(dst, file, def *LogConfig) {
	if dst.Level == def.Level && file.Level != "" {
		dst.Level = file.Level
	}
	if !dst.Development {
		dst.Development = file.Development
	}
}

func overlayRateLimit(dst, file, def *RateLimitConfig) {
	if dst.RequestsPerSecond == def.RequestsPerSecond && file.RequestsPerSecond != 0 {
		dst.RequestsPerSecond = file.RequestsPerSecond
	}
	if dst.Burst == def.Burst && file.Burst != 0 {
		dst.Burst = file.Burst
	}
}
