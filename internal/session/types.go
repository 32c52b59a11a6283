package session

import (
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
)

// VehicleState mirrors the autopilot's self-reported identity and
// armed status, refreshed on every HEARTBEAT.
type VehicleState struct {
	Armed        bool
	CustomMode   uint32
	ModeName     string
	SystemStatus ardupilotmega.MAV_STATE
	VehicleType  ardupilotmega.MAV_TYPE
	Autopilot    ardupilotmega.MAV_AUTOPILOT
}

// NavDelta carries the autopilot's own computed distance/bearing/
// cross-track figures relative to its current navigation target, from
// NAV_CONTROLLER_OUTPUT.
type NavDelta struct {
	WaypointDistance float64 // metres
	Bearing          float64 // degrees
	CrossTrackError  float64 // metres
	AltitudeError    float64 // metres
	AirspeedError    float64 // m/s
}

// Telemetry is the latest merged set of derived scalars observed from
// any of the telemetry-bearing messages. Every field is zero-valued
// until its source message is first observed; LastUpdate marks the
// most recent merge of any kind, one shared freshness timestamp rather
// than per-field flags.
type Telemetry struct {
	Latitude  float64
	Longitude float64
	Altitude  float64 // metres MSL

	VelocityX, VelocityY, VelocityZ float64 // m/s, NED

	Roll, Pitch, Yaw float64 // radians

	Heading       float64 // degrees
	GroundSpeed   float64 // m/s
	AirSpeed      float64 // m/s
	VerticalSpeed float64 // m/s

	BatteryVoltage   float64 // volts
	BatteryCurrent   float64 // amps
	BatteryRemaining int32   // percent, -1 if unknown

	GPSFixType     uint8
	Satellites     uint8
	HDOP           float64
	GPSAccuracy    float64 // metres

	Nav NavDelta

	RCChannels    []uint16
	RCSignal      uint8
	ServoChannels []uint16

	TerrainHeight float64 // metres, from TERRAIN_REPORT

	LastUpdate time.Time
}

// LinkPhase tags the LinkState variant.
type LinkPhase int

const (
	LinkConnecting LinkPhase = iota
	LinkConnected
	LinkDisconnected
	LinkErrorPhase
)

// LinkState is the tagged link-status variant; Reason is populated
// only when Phase == LinkErrorPhase.
type LinkState struct {
	Phase  LinkPhase
	Reason string
}

// MissionState tracks the autopilot-reported active waypoint and the
// size of the most recently completed transfer.
type MissionState struct {
	CurrentSeq int32
	Total      int32
}
