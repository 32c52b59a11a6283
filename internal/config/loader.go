package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Load loads configuration from environment variables, falling back to
// defaults for any missing values, then overlays a vehicle profile
// file if LINKRUNNER_VEHICLE_PROFILE points at one.
func Load() *Config {
	cfg := Default()

	if port := os.Getenv("LINKRUNNER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if host := os.Getenv("LINKRUNNER_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if headers := os.Getenv("LINKRUNNER_CORS_ALLOWED_HEADERS"); headers != "" {
		cfg.Server.CORSAllowedHeaders = strings.Split(headers, ",")
	}

	if logLevel := os.Getenv("LINKRUNNER_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if transport := os.Getenv("LINKRUNNER_MAVLINK_TRANSPORT"); transport != "" {
		cfg.MAVLink.Transport = transport
	}

	if udpAddr := os.Getenv("LINKRUNNER_MAVLINK_UDP_ADDRESS"); udpAddr != "" {
		cfg.MAVLink.UDPAddress = udpAddr
	}

	if device := os.Getenv("LINKRUNNER_MAVLINK_SERIAL_DEVICE"); device != "" {
		cfg.MAVLink.SerialDevice = device
	}

	if baud := os.Getenv("LINKRUNNER_MAVLINK_SERIAL_BAUD"); baud != "" {
		if b, err := strconv.Atoi(baud); err == nil {
			cfg.MAVLink.SerialBaud = b
		}
	}

	if profilePath := os.Getenv("LINKRUNNER_VEHICLE_PROFILE"); profilePath != "" {
		profile, err := LoadVehicleProfile(profilePath)
		if err != nil {
			logrus.WithError(err).WithField("path", profilePath).Fatal("config: failed to load vehicle profile")
		}
		profile.ApplyTo(&cfg.MAVLink)
	}

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config: invalid configuration")
	}

	return cfg
}
