// Package modetable holds the static, per (autopilot x vehicle-type)
// tables mapping MAVLink custom_mode to a human-readable name and
// back. They compose into the session but carry no protocol logic of
// their own.
package modetable

import "github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

// ArduPilot Copter flight modes.
// https://ardupilot.org/copter/docs/flight-modes.html
const (
	copterModeStabilize   = 0
	copterModeAcro        = 1
	copterModeAltHold     = 2
	copterModeAuto        = 3
	copterModeGuided      = 4
	copterModeLoiter      = 5
	copterModeRTL         = 6
	copterModeCircle      = 7
	copterModeLand        = 9
	copterModeDrift       = 11
	copterModeSport       = 13
	copterModeFlip        = 14
	copterModeAutoTune    = 15
	copterModePosHold     = 16
	copterModeBrake       = 17
	copterModeThrow       = 18
	copterModeAvoidADSB   = 19
	copterModeGuidedNoGPS = 20
	copterModeSmartRTL    = 21
	copterModeFlowHold    = 22
	copterModeFollow      = 23
	copterModeZigZag      = 24
	copterModeSystemID    = 25
	copterModeAutoRotate  = 26
	copterModeTurtle      = 27
)

// ArduPilot Plane flight modes.
const (
	planeModeManual       = 0
	planeModeCircle       = 1
	planeModeStabilize    = 2
	planeModeTraining     = 3
	planeModeAcro         = 4
	planeModeFlyByWireA   = 5
	planeModeFlyByWireB   = 6
	planeModeCruise       = 7
	planeModeAutoTune     = 8
	planeModeAuto         = 10
	planeModeRTL          = 11
	planeModeLoiter       = 12
	planeModeTakeoff      = 13
	planeModeAvoidADSB    = 14
	planeModeGuided       = 15
	planeModeInitializing = 16
	planeModeQStabilize   = 17
	planeModeQHover       = 18
	planeModeQLoiter      = 19
	planeModeQLand        = 20
	planeModeQRTL         = 21
	planeModeQAutoTune    = 22
	planeModeQAcro        = 23
	planeModeThermal      = 24
)

// VehicleClass distinguishes the two mode tables this package knows.
// Frame classification follows gomavlib's ardupilotmega.MAV_TYPE.
type VehicleClass int

const (
	VehicleCopter VehicleClass = iota
	VehiclePlane
)

// ClassFor picks the mode table for a reported MAV_TYPE, defaulting to
// the copter table the same way upstream adapters do.
func ClassFor(vehicleType ardupilotmega.MAV_TYPE) VehicleClass {
	switch vehicleType {
	case ardupilotmega.MAV_TYPE_FIXED_WING,
		ardupilotmega.MAV_TYPE_VTOL_TAILSITTER_DUOROTOR,
		ardupilotmega.MAV_TYPE_VTOL_TAILSITTER_QUADROTOR,
		ardupilotmega.MAV_TYPE_VTOL_TILTROTOR,
		ardupilotmega.MAV_TYPE_VTOL_FIXEDROTOR,
		ardupilotmega.MAV_TYPE_VTOL_TAILSITTER:
		return VehiclePlane
	default:
		return VehicleCopter
	}
}

var copterNames = map[uint32]string{
	copterModeStabilize:   "STABILIZE",
	copterModeAcro:        "ACRO",
	copterModeAltHold:     "ALT_HOLD",
	copterModeAuto:        "AUTO",
	copterModeGuided:      "GUIDED",
	copterModeLoiter:      "LOITER",
	copterModeRTL:         "RTL",
	copterModeCircle:      "CIRCLE",
	copterModeLand:        "LAND",
	copterModeDrift:       "DRIFT",
	copterModeSport:       "SPORT",
	copterModeFlip:        "FLIP",
	copterModeAutoTune:    "AUTOTUNE",
	copterModePosHold:     "POSHOLD",
	copterModeBrake:       "BRAKE",
	copterModeThrow:       "THROW",
	copterModeAvoidADSB:   "AVOID_ADSB",
	copterModeGuidedNoGPS: "GUIDED_NOGPS",
	copterModeSmartRTL:    "SMART_RTL",
	copterModeFlowHold:    "FLOWHOLD",
	copterModeFollow:      "FOLLOW",
	copterModeZigZag:      "ZIGZAG",
	copterModeSystemID:    "SYSTEMID",
	copterModeAutoRotate:  "AUTOROTATE",
	copterModeTurtle:      "TURTLE",
}

var planeNames = map[uint32]string{
	planeModeManual:       "MANUAL",
	planeModeCircle:       "CIRCLE",
	planeModeStabilize:    "STABILIZE",
	planeModeTraining:     "TRAINING",
	planeModeAcro:         "ACRO",
	planeModeFlyByWireA:   "FBWA",
	planeModeFlyByWireB:   "FBWB",
	planeModeCruise:       "CRUISE",
	planeModeAutoTune:     "AUTOTUNE",
	planeModeAuto:         "AUTO",
	planeModeRTL:          "RTL",
	planeModeLoiter:       "LOITER",
	planeModeTakeoff:      "TAKEOFF",
	planeModeAvoidADSB:    "AVOID_ADSB",
	planeModeGuided:       "GUIDED",
	planeModeInitializing: "INITIALIZING",
	planeModeQStabilize:   "QSTABILIZE",
	planeModeQHover:       "QHOVER",
	planeModeQLoiter:      "QLOITER",
	planeModeQLand:        "QLAND",
	planeModeQRTL:         "QRTL",
	planeModeQAutoTune:    "QAUTOTUNE",
	planeModeQAcro:        "QACRO",
	planeModeThermal:      "THERMAL",
}

func reverse(names map[uint32]string) map[string]uint32 {
	out := make(map[string]uint32, len(names))
	for mode, name := range names {
		out[name] = mode
	}
	return out
}

var copterByName = reverse(copterNames)
var planeByName = reverse(planeNames)

// Name returns the human-readable mode name for a custom_mode value
// given the vehicle's reported MAV_TYPE, or "UNKNOWN" if unmapped.
func Name(vehicleType ardupilotmega.MAV_TYPE, customMode uint32) string {
	names := copterNames
	if ClassFor(vehicleType) == VehiclePlane {
		names = planeNames
	}
	if name, ok := names[customMode]; ok {
		return name
	}
	return "UNKNOWN"
}

// CustomMode is the reverse of Name: it resolves a mode name to the
// custom_mode value set_mode must transmit. ok is false for an unknown
// name.
func CustomMode(vehicleType ardupilotmega.MAV_TYPE, name string) (uint32, bool) {
	byName := copterByName
	if ClassFor(vehicleType) == VehiclePlane {
		byName = planeByName
	}
	mode, ok := byName[name]
	return mode, ok
}
