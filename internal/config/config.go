package config

import (
	"fmt"
	"time"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Protocol ProtocolConfig `yaml:"protocol"`
}

// ServerConfig holds the HTTP listener and WebSocket tuning.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadLimit    int64         `yaml:"read_limit"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ProtocolConfig holds the signaling protocol policy. Anonymous clients are
// admitted unless require_token is set.
type ProtocolConfig struct {
	Versions     []string `yaml:"versions"`
	RequireToken bool     `yaml:"require_token"`
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8095"
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = 64 << 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if len(c.Protocol.Versions) == 0 {
		c.Protocol.Versions = []string{"4.2", "4.2.1", "4.3", "4.3.1", "4.4"}
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.ReadLimit < 0 {
		return fmt.Errorf("server.read_limit must not be negative, got %d", c.Server.ReadLimit)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must not be negative, got %s", c.Server.WriteTimeout)
	}
	return nil
}
