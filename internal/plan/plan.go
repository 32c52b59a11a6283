// Package plan defines the domain model for mission, fence and rally
// plans: the typed items a vehicle stores on board, plus validation,
// normalisation and equivalence over them.
package plan

import "math"

// Kind distinguishes the three plan namespaces the autopilot keeps
// separately on the wire (MAV_MISSION_TYPE).
type Kind int

const (
	Mission Kind = iota
	Fence
	Rally
)

func (k Kind) String() string {
	switch k {
	case Mission:
		return "mission"
	case Fence:
		return "fence"
	case Rally:
		return "rally"
	default:
		return "unknown"
	}
}

// Frame tags the coordinate frame a PlanItem's x/y/z are expressed in.
type Frame struct {
	Kind  FrameKind
	Other uint8 // populated when Kind == FrameOther
}

type FrameKind int

const (
	FrameMission FrameKind = iota
	FrameGlobalInt
	FrameGlobalRelativeAltInt
	FrameGlobalTerrainAltInt
	FrameLocalNed
	FrameOther
)

// PlanItem is one ordered waypoint, fence vertex or rally point.
type PlanItem struct {
	Seq          uint16
	Command      uint16
	Frame        Frame
	Current      bool
	Autocontinue bool
	P1, P2, P3, P4 float32
	X            int32 // latitude * 1e7 degrees
	Y            int32 // longitude * 1e7 degrees
	Z            float32
}

// HomePosition is the reference origin for relative-altitude frames and
// return-to-launch behaviour.
type HomePosition struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees
	Altitude  float64 // metres
}

// Plan is a complete, ordered set of items of one Kind, with an
// optional home position valid only for Kind == Mission.
type Plan struct {
	Kind  Kind
	Home  *HomePosition
	Items []PlanItem
}

// Severity classifies an Issue found by Validate.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Issue is one validation finding against a Plan.
type Issue struct {
	Code     string
	Message  string
	Seq      *uint16
	Severity Severity
}

const (
	minX = -900_000_000
	maxX = 900_000_000
	minY = -1_800_000_000
	maxY = 1_800_000_000

	// NormalizeTolerance bounds the rounding applied by Normalize and the
	// slack allowed by Equivalent when comparing float parameters.
	NormalizeTolerance = 1e-3

	// MAV_CMD_NAV_WAYPOINT, used for the synthetic home item emitted by
	// the wire-boundary translator and referenced here only for the
	// zero-altitude warning heuristic.
	cmdNavWaypoint = 16
)

func seqPtr(s uint16) *uint16 { return &s }

// Validate checks seq contiguity, coordinate bounds, parameter
// finiteness and home-position sanity. It never mutates plan.
func Validate(p Plan) []Issue {
	var issues []Issue

	if p.Kind != Mission && p.Home != nil {
		issues = append(issues, Issue{
			Code:     "home_on_non_mission",
			Message:  "home position is only valid on a Mission plan",
			Severity: SeverityError,
		})
	}

	for i, item := range p.Items {
		if int(item.Seq) != i {
			issues = append(issues, Issue{
				Code:     "seq_not_contiguous",
				Message:  "item sequence numbers must be 0,1,2,... contiguous",
				Seq:      seqPtr(item.Seq),
				Severity: SeverityError,
			})
		}

		if item.X < minX || item.X > maxX {
			issues = append(issues, Issue{
				Code:     "x_out_of_range",
				Message:  "x (latitude*1e7) out of range",
				Seq:      seqPtr(item.Seq),
				Severity: SeverityError,
			})
		}
		if item.Y < minY || item.Y > maxY {
			issues = append(issues, Issue{
				Code:     "y_out_of_range",
				Message:  "y (longitude*1e7) out of range",
				Seq:      seqPtr(item.Seq),
				Severity: SeverityError,
			})
		}

		if anyNaN(item) {
			issues = append(issues, Issue{
				Code:     "nan_parameter",
				Message:  "a float parameter is NaN",
				Seq:      seqPtr(item.Seq),
				Severity: SeverityError,
			})
		}

		if item.Command == cmdNavWaypoint && item.Z == 0 {
			issues = append(issues, Issue{
				Code:     "zero_altitude_waypoint",
				Message:  "waypoint altitude is exactly 0",
				Seq:      seqPtr(item.Seq),
				Severity: SeverityWarning,
			})
		}
	}

	if p.Kind == Mission && p.Home != nil {
		h := p.Home
		if h.Latitude < -90 || h.Latitude > 90 ||
			h.Longitude < -180 || h.Longitude > 180 ||
			!finite3(h.Latitude, h.Longitude, h.Altitude) {
			issues = append(issues, Issue{
				Code:     "invalid_home",
				Message:  "home position out of range or non-finite",
				Severity: SeverityError,
			})
		}
	}

	return issues
}

func anyNaN(item PlanItem) bool {
	for _, v := range []float32{item.P1, item.P2, item.P3, item.P4, item.Z} {
		if math.IsNaN(float64(v)) {
			return true
		}
	}
	return false
}

func finite3(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// canonicalFrame maps minor frame aliases onto the canonical form used
// for equivalence comparisons: the non-INT global frames, carried as
// FrameOther with their raw MAV_FRAME value, become their _INT forms.
func canonicalFrame(f Frame) Frame {
	if f.Kind != FrameOther {
		return f
	}
	switch f.Other {
	case 0: // MAV_FRAME_GLOBAL
		return Frame{Kind: FrameGlobalInt}
	case 3: // MAV_FRAME_GLOBAL_RELATIVE_ALT
		return Frame{Kind: FrameGlobalRelativeAltInt}
	case 10: // MAV_FRAME_GLOBAL_TERRAIN_ALT
		return Frame{Kind: FrameGlobalTerrainAltInt}
	}
	return f
}

func roundTo(v float32, tolerance float64) float32 {
	if tolerance <= 0 {
		return v
	}
	return float32(math.Round(float64(v)/tolerance) * tolerance)
}

// Normalize returns a copy of p with frame aliases canonicalised, float
// parameters rounded to NormalizeTolerance, and seq restored to a
// contiguous 0..N-1 sequence in item order.
func Normalize(p Plan) Plan {
	out := Plan{Kind: p.Kind}
	if p.Home != nil {
		h := *p.Home
		out.Home = &h
	}
	out.Items = make([]PlanItem, len(p.Items))
	for i, item := range p.Items {
		n := item
		n.Seq = uint16(i)
		n.Frame = canonicalFrame(item.Frame)
		n.P1 = roundTo(item.P1, NormalizeTolerance)
		n.P2 = roundTo(item.P2, NormalizeTolerance)
		n.P3 = roundTo(item.P3, NormalizeTolerance)
		n.P4 = roundTo(item.P4, NormalizeTolerance)
		out.Items[i] = n
	}
	return out
}

// Equivalent compares two plans after normalisation: same kind, same
// item count, x/y equal exactly, and each float parameter within
// NormalizeTolerance.
func Equivalent(a, b Plan) bool {
	if a.Kind != b.Kind {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	if len(na.Items) != len(nb.Items) {
		return false
	}
	for i := range na.Items {
		ia, ib := na.Items[i], nb.Items[i]
		if ia.X != ib.X || ia.Y != ib.Y {
			return false
		}
		if ia.Command != ib.Command || ia.Frame != ib.Frame {
			return false
		}
		if !closeEnough(ia.P1, ib.P1) || !closeEnough(ia.P2, ib.P2) ||
			!closeEnough(ia.P3, ib.P3) || !closeEnough(ia.P4, ib.P4) ||
			!closeEnough(ia.Z, ib.Z) {
			return false
		}
	}
	return true
}

func closeEnough(a, b float32) bool {
	return math.Abs(float64(a-b)) <= NormalizeTolerance
}

// StripHome returns a copy of p with Home cleared, used by
// verify_roundtrip since an autopilot may fuse its own home estimate
// independently of what was uploaded.
func StripHome(p Plan) Plan {
	out := p
	out.Home = nil
	items := make([]PlanItem, len(p.Items))
	copy(items, p.Items)
	out.Items = items
	return out
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
