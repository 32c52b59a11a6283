package session

import (
	"context"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
	"github.com/google/uuid"

	"github.com/argus-gcs/linkrunner/internal/mavlinkio"
)

// awaitCommandAck registers a one-shot waiter for cmd's COMMAND_ACK,
// sends the frame via send, and blocks until the ack arrives,
// commandAckDeadline elapses, or ctx is cancelled. Each call is tagged
// with a correlation ID purely for log correlation: COMMAND_ACK itself
// carries no request identifier, so matching still happens by command
// ID against cmdWaiters.
func (v *Vehicle) awaitCommandAck(ctx context.Context, cmd ardupilotmega.MAV_CMD, send func() error) error {
	requestID := uuid.New()
	ch := make(chan *ardupilotmega.MessageCommandAck, 1)
	v.mu.Lock()
	v.cmdWaiters[cmd] = append(v.cmdWaiters[cmd], ch)
	v.mu.Unlock()

	if err := send(); err != nil {
		return &TransportError{Err: err}
	}
	v.logger.WithFields(map[string]any{"request_id": requestID, "command": cmd}).Debug("session: command sent, awaiting ack")

	timer := time.NewTimer(commandAckDeadline)
	defer timer.Stop()

	select {
	case ack := <-ch:
		if ack.Result != ardupilotmega.MAV_RESULT_ACCEPTED {
			return &CommandFailedError{Command: uint16(cmd), Result: uint8(ack.Result)}
		}
		return nil
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Arm requests MAV_CMD_COMPONENT_ARM_DISARM with param1=1.
func (v *Vehicle) Arm(ctx context.Context, force bool) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	param2 := float32(0)
	if force {
		param2 = 21196
	}
	sysID := v.targetSystem()
	return v.awaitCommandAck(ctx, ardupilotmega.MAV_CMD_COMPONENT_ARM_DISARM, func() error {
		return v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_COMPONENT_ARM_DISARM,
			Param1:          1,
			Param2:          param2,
		})
	})
}

// Disarm requests MAV_CMD_COMPONENT_ARM_DISARM with param1=0.
func (v *Vehicle) Disarm(ctx context.Context, force bool) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	param2 := float32(0)
	if force {
		param2 = 21196
	}
	sysID := v.targetSystem()
	return v.awaitCommandAck(ctx, ardupilotmega.MAV_CMD_COMPONENT_ARM_DISARM, func() error {
		return v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_COMPONENT_ARM_DISARM,
			Param1:          0,
			Param2:          param2,
		})
	})
}

// SetMode sends a SET_MODE message carrying customMode, then waits up
// to commandAckDeadline for VehicleState to report that CustomMode. No
// COMMAND_ACK is awaited.
func (v *Vehicle) SetMode(ctx context.Context, customMode uint32) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	sysID := v.targetSystem()

	changed := make(chan struct{}, 1)
	stop := make(chan struct{})
	sub, cancel := v.Vehicle_.Subscribe()
	defer cancel()
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case state := <-sub:
				if state.CustomMode == customMode {
					select {
					case changed <- struct{}{}:
					default:
					}
					return
				}
			}
		}
	}()

	if err := v.node.WriteMessageAll(&ardupilotmega.MessageSetMode{
		TargetSystem: sysID,
		BaseMode:     ardupilotmega.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED,
		CustomMode:   customMode,
	}); err != nil {
		return &TransportError{Err: err}
	}

	timer := time.NewTimer(commandAckDeadline)
	defer timer.Stop()
	select {
	case <-changed:
		return nil
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Takeoff requests MAV_CMD_NAV_TAKEOFF to altitudeM metres above the
// current position.
func (v *Vehicle) Takeoff(ctx context.Context, altitudeM float32) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	sysID := v.targetSystem()
	return v.awaitCommandAck(ctx, ardupilotmega.MAV_CMD_NAV_TAKEOFF, func() error {
		return v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_NAV_TAKEOFF,
			Param7:          altitudeM,
		})
	})
}

// Land requests MAV_CMD_NAV_LAND at the current position.
func (v *Vehicle) Land(ctx context.Context) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	sysID := v.targetSystem()
	return v.awaitCommandAck(ctx, ardupilotmega.MAV_CMD_NAV_LAND, func() error {
		return v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_NAV_LAND,
		})
	})
}

// ReturnToLaunch requests MAV_CMD_NAV_RETURN_TO_LAUNCH.
func (v *Vehicle) ReturnToLaunch(ctx context.Context) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	sysID := v.targetSystem()
	return v.awaitCommandAck(ctx, ardupilotmega.MAV_CMD_NAV_RETURN_TO_LAUNCH, func() error {
		return v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
			TargetSystem:    sysID,
			TargetComponent: mavlinkio.TargetComponent,
			Command:         ardupilotmega.MAV_CMD_NAV_RETURN_TO_LAUNCH,
		})
	})
}

// GuidedGoto commands a direct fly-to in GUIDED mode via
// SET_POSITION_TARGET_GLOBAL_INT, masking out velocity/acceleration/yaw
// fields so only position is honoured.
func (v *Vehicle) GuidedGoto(ctx context.Context, lat, lon, altRelM float64) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	const ignoreVelAccYaw = 0b0000_111_111_111_000
	sysID := v.targetSystem()
	err := v.node.WriteMessageAll(&ardupilotmega.MessageSetPositionTargetGlobalInt{
		TimeBootMs:      uint32(time.Now().UnixMilli()),
		TargetSystem:    sysID,
		TargetComponent: mavlinkio.TargetComponent,
		CoordinateFrame: ardupilotmega.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
		TypeMask:        ignoreVelAccYaw,
		LatInt:          int32(lat * 1e7),
		LonInt:          int32(lon * 1e7),
		Alt:             float32(altRelM),
	})
	if err != nil {
		return &TransportError{Err: err}
	}
	return nil
}
