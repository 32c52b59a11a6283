package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VehicleProfile is the single vehicle this runtime connects to,
// loaded from YAML. It supersedes the multi-vehicle registry shape:
// this runtime manages exactly one link at a time.
type VehicleProfile struct {
	Name       string `yaml:"name"`
	Transport  string `yaml:"transport"` // "udp" or "serial"
	UDPAddress string `yaml:"udp_address"`
	Serial     struct {
		Device string `yaml:"device"`
		Baud   int    `yaml:"baud"`
	} `yaml:"serial"`
}

// LoadVehicleProfile loads a single vehicle profile from a YAML file.
func LoadVehicleProfile(path string) (*VehicleProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vehicle profile: %w", err)
	}

	var profile VehicleProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse vehicle profile: %w", err)
	}

	return &profile, nil
}

// ApplyTo overlays the profile's non-empty fields onto an existing
// MAVLinkConfig, letting a profile file override only what it sets.
func (p *VehicleProfile) ApplyTo(cfg *MAVLinkConfig) {
	if p.Transport != "" {
		cfg.Transport = p.Transport
	}
	if p.UDPAddress != "" {
		cfg.UDPAddress = p.UDPAddress
	}
	if p.Serial.Device != "" {
		cfg.SerialDevice = p.Serial.Device
	}
	if p.Serial.Baud != 0 {
		cfg.SerialBaud = p.Serial.Baud
	}
}

// ResolveEndpoint returns the transport selection ("udp" or "serial")
// together with the UDP address and the serial device and baud, from
// which a caller builds a mavlinkio.EndpointConfig.
func (c *MAVLinkConfig) ResolveEndpoint() (kind string, address string, device string, baud int) {
	return c.Transport, c.UDPAddress, c.SerialDevice, c.SerialBaud
}
