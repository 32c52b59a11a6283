package session

import (
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/argus-gcs/linkrunner/internal/mavlinkio"
	"github.com/argus-gcs/linkrunner/internal/transfer"
)

// handleMessage routes one decoded inbound frame to at most one
// reactive channel and, if relevant, the active transfer machine.
func (v *Vehicle) handleMessage(frm *gomavlib.EventFrame) {
	switch msg := frm.Message().(type) {
	case *ardupilotmega.MessageHeartbeat:
		v.handleHeartbeat(msg, frm.SystemID())

	case *ardupilotmega.MessageGlobalPositionInt:
		v.mergeTelemetry(func(t *Telemetry) {
			t.Latitude = float64(msg.Lat) / 1e7
			t.Longitude = float64(msg.Lon) / 1e7
			t.Altitude = float64(msg.Alt) / 1000.0
			t.VelocityX = float64(msg.Vx) / 100.0
			t.VelocityY = float64(msg.Vy) / 100.0
			t.VelocityZ = float64(msg.Vz) / 100.0
		})

	case *ardupilotmega.MessageAttitude:
		v.mergeTelemetry(func(t *Telemetry) {
			t.Roll = float64(msg.Roll)
			t.Pitch = float64(msg.Pitch)
			t.Yaw = float64(msg.Yaw)
		})

	case *ardupilotmega.MessageVfrHud:
		v.mergeTelemetry(func(t *Telemetry) {
			t.Heading = float64(msg.Heading)
			t.GroundSpeed = float64(msg.Groundspeed)
			t.AirSpeed = float64(msg.Airspeed)
			t.VerticalSpeed = float64(msg.Climb)
		})

	case *ardupilotmega.MessageSysStatus:
		v.mergeTelemetry(func(t *Telemetry) {
			t.BatteryVoltage = float64(msg.VoltageBattery) / 1000.0
			t.BatteryCurrent = float64(msg.CurrentBattery) / 100.0
			t.BatteryRemaining = int32(msg.BatteryRemaining)
		})

	case *ardupilotmega.MessageGpsRawInt:
		v.mergeTelemetry(func(t *Telemetry) {
			t.GPSFixType = uint8(msg.FixType)
			t.Satellites = msg.SatellitesVisible
			t.HDOP = float64(msg.Eph) / 100.0
			t.GPSAccuracy = float64(msg.Eph) / 100.0
		})

	case *ardupilotmega.MessageBatteryStatus:
		v.mergeTelemetry(func(t *Telemetry) {
			t.BatteryCurrent = float64(msg.CurrentBattery) / 100.0
			t.BatteryRemaining = int32(msg.BatteryRemaining)
		})

	case *ardupilotmega.MessageNavControllerOutput:
		v.mergeTelemetry(func(t *Telemetry) {
			t.Nav = NavDelta{
				WaypointDistance: float64(msg.WpDist),
				Bearing:          float64(msg.TargetBearing),
				CrossTrackError:  float64(msg.Xtrack_error),
				AltitudeError:    float64(msg.AltError),
				AirspeedError:    float64(msg.AspdError),
			}
		})

	case *ardupilotmega.MessageRcChannels:
		v.mergeTelemetry(func(t *Telemetry) {
			t.RCChannels = []uint16{
				msg.Chan1Raw, msg.Chan2Raw, msg.Chan3Raw, msg.Chan4Raw,
				msg.Chan5Raw, msg.Chan6Raw, msg.Chan7Raw, msg.Chan8Raw,
			}
			t.RCSignal = msg.Rssi
		})

	case *ardupilotmega.MessageServoOutputRaw:
		v.mergeTelemetry(func(t *Telemetry) {
			t.ServoChannels = []uint16{
				msg.Servo1Raw, msg.Servo2Raw, msg.Servo3Raw, msg.Servo4Raw,
				msg.Servo5Raw, msg.Servo6Raw, msg.Servo7Raw, msg.Servo8Raw,
			}
		})

	case *ardupilotmega.MessageTerrainReport:
		v.mergeTelemetry(func(t *Telemetry) {
			t.TerrainHeight = float64(msg.CurrentHeight)
		})

	case *ardupilotmega.MessageHomePosition:
		v.Home.Publish(HomePositionState{
			Latitude:  float64(msg.Latitude) / 1e7,
			Longitude: float64(msg.Longitude) / 1e7,
			Altitude:  float64(msg.Altitude) / 1000.0,
		})

	case *ardupilotmega.MessageMissionCurrent:
		v.updateMissionState(func(m *MissionState) { m.CurrentSeq = int32(msg.Seq) })
		v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionCurrent, Seq: msg.Seq})

	case *ardupilotmega.MessageMissionItemReached:
		v.updateMissionState(func(m *MissionState) { m.CurrentSeq = int32(msg.Seq) })

	case *ardupilotmega.MessageMissionCount:
		if kind, ok := mavToKind(msg.MissionType); ok {
			v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionCount, Type: kind, Count: msg.Count})
		}

	case *ardupilotmega.MessageMissionRequestInt:
		if kind, ok := mavToKind(msg.MissionType); ok {
			v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionRequestInt, Type: kind, Seq: msg.Seq})
		}

	case *ardupilotmega.MessageMissionRequest:
		if kind, ok := mavToKind(msg.MissionType); ok {
			v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionRequestLegacy, Type: kind, Seq: msg.Seq})
		}

	case *ardupilotmega.MessageMissionItemInt:
		if kind, ok := mavToKind(msg.MissionType); ok {
			v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionItemInt, Type: kind, Seq: msg.Seq, Item: messageToItem(msg)})
		}

	case *ardupilotmega.MessageMissionAck:
		if kind, ok := mavToKind(msg.MissionType); ok {
			v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionAck, Type: kind, Result: uint8(msg.Type)})
		}

	case *ardupilotmega.MessageCommandAck:
		v.routeCommandAck(msg)
		v.feedTransfer(transfer.Inbound{Tag: transfer.EvCommandAck, Command: uint16(msg.Command), Result: uint8(msg.Result)})
	}
}

func (v *Vehicle) handleHeartbeat(msg *ardupilotmega.MessageHeartbeat, sysID uint8) {
	v.mu.Lock()
	wasConnected := v.connected
	v.connected = true
	v.lastHeartbeat = time.Now()
	v.systemID = sysID
	v.vehicleType = msg.Type
	v.autopilot = msg.Autopilot
	needHome := !v.requestedHome
	if needHome {
		v.requestedHome = true
	}
	v.mu.Unlock()

	if !wasConnected {
		v.Link.Publish(LinkState{Phase: LinkConnected})
	}

	v.Vehicle_.Publish(VehicleState{
		Armed:        (msg.BaseMode & ardupilotmega.MAV_MODE_FLAG_SAFETY_ARMED) != 0,
		CustomMode:   msg.CustomMode,
		ModeName:     v.modeName(msg.CustomMode),
		SystemStatus: msg.SystemStatus,
		VehicleType:  msg.Type,
		Autopilot:    msg.Autopilot,
	})

	if needHome {
		_ = v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_REQUEST_MESSAGE,
			Param1:          float32(ardupilotmega.MAVLINK_MSG_ID_HOME_POSITION),
		})
	}
}

func (v *Vehicle) mergeTelemetry(mutate func(*Telemetry)) {
	cur, _ := v.Telemetry.Get()
	mutate(&cur)
	cur.LastUpdate = time.Now()
	v.Telemetry.Publish(cur)
}

func (v *Vehicle) updateMissionState(mutate func(*MissionState)) {
	cur, _ := v.Mission.Get()
	mutate(&cur)
	v.Mission.Publish(cur)
}

func (v *Vehicle) routeCommandAck(msg *ardupilotmega.MessageCommandAck) {
	v.mu.Lock()
	waiters := v.cmdWaiters[msg.Command]
	if len(waiters) > 0 {
		delete(v.cmdWaiters, msg.Command)
	}
	v.mu.Unlock()

	for _, ch := range waiters {
		select {
		case ch <- msg:
		default:
		}
	}
}
