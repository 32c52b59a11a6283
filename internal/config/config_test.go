package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := Default()
	cfg.MAVLink.Transport = "bluetooth"
	assert.Error(t, cfg.Validate())
}

func TestVehicleProfileAppliesOnlySetFields(t *testing.T) {
	cfg := Default()
	profile := &VehicleProfile{UDPAddress: "127.0.0.1:14551"}
	profile.ApplyTo(&cfg.MAVLink)

	assert.Equal(t, "127.0.0.1:14551", cfg.MAVLink.UDPAddress)
	assert.Equal(t, "udp", cfg.MAVLink.Transport)
}
