// Package wireformat is the only layer allowed to shift between the
// semantic Plan (home as a separate field) and the wire form an
// autopilot actually stores (home at sequence 0 of a Mission-type
// transfer). Higher layers operate only on semantic plans.
package wireformat

import "github.com/argus-gcs/linkrunner/internal/plan"

// WireItem mirrors the fields a MISSION_ITEM_INT frame carries, kept
// separate from plan.PlanItem so the shift performed here never leaks
// into the domain model.
type WireItem struct {
	Seq          uint16
	Command      uint16
	Frame        plan.Frame
	Current      bool
	Autocontinue bool
	P1, P2, P3, P4 float32
	X            int32
	Y            int32
	Z            float32
}

// cmdNavWaypoint is MAV_CMD_NAV_WAYPOINT, used by convention for the
// synthetic home item at wire seq 0.
const cmdNavWaypoint = 16

func itemToWire(seq uint16, it plan.PlanItem) WireItem {
	return WireItem{
		Seq:          seq,
		Command:      it.Command,
		Frame:        it.Frame,
		Current:      it.Current,
		Autocontinue: it.Autocontinue,
		P1:           it.P1,
		P2:           it.P2,
		P3:           it.P3,
		P4:           it.P4,
		X:            it.X,
		Y:            it.Y,
		Z:            it.Z,
	}
}

func wireToItem(seq uint16, w WireItem) plan.PlanItem {
	return plan.PlanItem{
		Seq:          seq,
		Command:      w.Command,
		Frame:        w.Frame,
		Current:      w.Current,
		Autocontinue: w.Autocontinue,
		P1:           w.P1,
		P2:           w.P2,
		P3:           w.P3,
		P4:           w.P4,
		X:            w.X,
		Y:            w.Y,
		Z:            w.Z,
	}
}

func homeToWire(h plan.HomePosition) WireItem {
	return WireItem{
		Seq:          0,
		Command:      cmdNavWaypoint,
		Frame:        plan.Frame{Kind: plan.FrameGlobalInt},
		Autocontinue: true,
		X:            int32(h.Latitude * 1e7),
		Y:            int32(h.Longitude * 1e7),
		Z:            float32(h.Altitude),
	}
}

func wireToHome(w WireItem) plan.HomePosition {
	return plan.HomePosition{
		Latitude:  float64(w.X) / 1e7,
		Longitude: float64(w.Y) / 1e7,
		Altitude:  float64(w.Z),
	}
}

// ToWire assumes p is already validated; it performs no bounds checks
// of its own.
func ToWire(p plan.Plan) []WireItem {
	if p.Kind == plan.Mission && p.Home != nil {
		out := make([]WireItem, 0, len(p.Items)+1)
		out = append(out, homeToWire(*p.Home))
		for i, it := range p.Items {
			out = append(out, itemToWire(uint16(i+1), it))
		}
		return out
	}

	out := make([]WireItem, len(p.Items))
	for i, it := range p.Items {
		out[i] = itemToWire(uint16(i), it)
	}
	return out
}

// FromWire reverses ToWire for a given kind. For Mission the first wire
// item is always taken as home, so a Mission plan sent without home
// comes back with its first item as home.
func FromWire(kind plan.Kind, wire []WireItem) plan.Plan {
	if kind == plan.Mission && len(wire) >= 1 {
		home := wireToHome(wire[0])
		items := make([]plan.PlanItem, 0, len(wire)-1)
		for i, w := range wire[1:] {
			items = append(items, wireToItem(uint16(i), w))
		}
		return plan.Plan{Kind: kind, Home: &home, Items: items}
	}

	items := make([]plan.PlanItem, len(wire))
	for i, w := range wire {
		items[i] = wireToItem(uint16(i), w)
	}
	return plan.Plan{Kind: kind, Items: items}
}
