package session

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/argus-gcs/linkrunner/internal/plan"
	"github.com/argus-gcs/linkrunner/internal/wireformat"
)

func kindToMAV(k plan.Kind) ardupilotmega.MAV_MISSION_TYPE {
	switch k {
	case plan.Fence:
		return ardupilotmega.MAV_MISSION_TYPE_FENCE
	case plan.Rally:
		return ardupilotmega.MAV_MISSION_TYPE_RALLY
	default:
		return ardupilotmega.MAV_MISSION_TYPE_MISSION
	}
}

func mavToKind(t ardupilotmega.MAV_MISSION_TYPE) (plan.Kind, bool) {
	switch t {
	case ardupilotmega.MAV_MISSION_TYPE_MISSION:
		return plan.Mission, true
	case ardupilotmega.MAV_MISSION_TYPE_FENCE:
		return plan.Fence, true
	case ardupilotmega.MAV_MISSION_TYPE_RALLY:
		return plan.Rally, true
	default:
		return plan.Mission, false
	}
}

func frameToMAV(f plan.Frame) ardupilotmega.MAV_FRAME {
	switch f.Kind {
	case plan.FrameMission:
		return ardupilotmega.MAV_FRAME_MISSION
	case plan.FrameGlobalInt:
		return ardupilotmega.MAV_FRAME_GLOBAL_INT
	case plan.FrameGlobalRelativeAltInt:
		return ardupilotmega.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT
	case plan.FrameGlobalTerrainAltInt:
		return ardupilotmega.MAV_FRAME_GLOBAL_TERRAIN_ALT_INT
	case plan.FrameLocalNed:
		return ardupilotmega.MAV_FRAME_LOCAL_NED
	default:
		return ardupilotmega.MAV_FRAME(f.Other)
	}
}

func mavToFrame(f ardupilotmega.MAV_FRAME) plan.Frame {
	switch f {
	case ardupilotmega.MAV_FRAME_MISSION:
		return plan.Frame{Kind: plan.FrameMission}
	case ardupilotmega.MAV_FRAME_GLOBAL_INT:
		return plan.Frame{Kind: plan.FrameGlobalInt}
	case ardupilotmega.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT:
		return plan.Frame{Kind: plan.FrameGlobalRelativeAltInt}
	case ardupilotmega.MAV_FRAME_GLOBAL_TERRAIN_ALT_INT:
		return plan.Frame{Kind: plan.FrameGlobalTerrainAltInt}
	case ardupilotmega.MAV_FRAME_LOCAL_NED:
		return plan.Frame{Kind: plan.FrameLocalNed}
	default:
		return plan.Frame{Kind: plan.FrameOther, Other: uint8(f)}
	}
}

func itemToMessage(sysID, compID uint8, kind plan.Kind, it wireformat.WireItem) *ardupilotmega.MessageMissionItemInt {
	current := uint8(0)
	if it.Current {
		current = 1
	}
	autocontinue := uint8(0)
	if it.Autocontinue {
		autocontinue = 1
	}
	return &ardupilotmega.MessageMissionItemInt{
		TargetSystem:    sysID,
		TargetComponent: compID,
		Seq:             it.Seq,
		Frame:           frameToMAV(it.Frame),
		Command:         ardupilotmega.MAV_CMD(it.Command),
		Current:         current,
		Autocontinue:    autocontinue,
		Param1:          it.P1,
		Param2:          it.P2,
		Param3:          it.P3,
		Param4:          it.P4,
		X:               it.X,
		Y:               it.Y,
		Z:               it.Z,
		MissionType:     kindToMAV(kind),
	}
}

func messageToItem(msg *ardupilotmega.MessageMissionItemInt) wireformat.WireItem {
	return wireformat.WireItem{
		Seq:          msg.Seq,
		Command:      uint16(msg.Command),
		Frame:        mavToFrame(msg.Frame),
		Current:      msg.Current != 0,
		Autocontinue: msg.Autocontinue != 0,
		P1:           msg.Param1,
		P2:           msg.Param2,
		P3:           msg.Param3,
		P4:           msg.Param4,
		X:            msg.X,
		Y:            msg.Y,
		Z:            msg.Z,
	}
}
