// Package config loads the runtime's static configuration: the
// diagnostics HTTP surface, the vehicle transport endpoint, and
// logging, following the environment-override-over-defaults pattern
// used throughout this stack.
package config

import "fmt"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	MAVLink MAVLinkConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSOrigins        []string
	CORSAllowedHeaders []string
}

// MAVLinkConfig describes the single vehicle endpoint this runtime
// connects to. Exactly one of (UDPAddress) / (SerialDevice,
// SerialBaud) is meaningful, selected by Transport.
type MAVLinkConfig struct {
	Transport    string // "udp" or "serial"
	UDPAddress   string
	SerialDevice string
	SerialBaud   int
}

type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
			CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		MAVLink: MAVLinkConfig{
			Transport:    "udp",
			UDPAddress:   ":14550",
			SerialDevice: "/dev/ttyUSB0",
			SerialBaud:   57600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.MAVLink.Transport {
	case "udp", "serial":
	default:
		return fmt.Errorf("invalid mavlink transport: %s", c.MAVLink.Transport)
	}

	return nil
}

// ServerAddr returns the server address as host:port.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
