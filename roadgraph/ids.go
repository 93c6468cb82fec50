// Package roadgraph implements the spatial road/lane graph named "Map" in
// spec.md §4.C: intersections, roads, lanes, turns, parking spots and lots,
// with deterministic turn and traffic-control generation. It is named
// roadgraph rather than "map" to avoid colliding with the Go builtin.
package roadgraph

import "fmt"

// IntersectionID, RoadID, LaneID, TurnID, ParkingSpotID, LotID and
// BuildingID are opaque handles. Each carries a generation counter so a
// stale reference from before a remove can be detected instead of silently
// resolving to an unrelated, later entity reusing the same slot.
type (
	IntersectionID struct{ Index, Gen uint32 }
	RoadID         struct{ Index, Gen uint32 }
	LaneID         struct{ Index, Gen uint32 }
	TurnID         struct{ Index, Gen uint32 }
	ParkingSpotID  struct{ Index, Gen uint32 }
	LotID          struct{ Index, Gen uint32 }
	BuildingID     struct{ Index, Gen uint32 }
)

func (id IntersectionID) String() string { return fmt.Sprintf("Inter(%d:%d)", id.Index, id.Gen) }
func (id RoadID) String() string         { return fmt.Sprintf("Road(%d:%d)", id.Index, id.Gen) }
func (id LaneID) String() string         { return fmt.Sprintf("Lane(%d:%d)", id.Index, id.Gen) }
func (id TurnID) String() string         { return fmt.Sprintf("Turn(%d:%d)", id.Index, id.Gen) }

// LaneKind enumerates the kinds of lane named in spec.md §3.
type LaneKind uint8

const (
	Driving LaneKind = iota
	Walking
	Parking
	Rail
	Bus
)

// TrafficControl is the signal discipline applied at one end of a lane,
// derived from the owning intersection's LightPolicy (spec.md §4.C).
type TrafficControl struct {
	Kind ControlKind
	// Light holds the schedule when Kind == ControlLights; zero otherwise.
	Light LightSchedule
}

// ControlKind enumerates traffic-control disciplines.
type ControlKind uint8

const (
	ControlNone ControlKind = iota
	ControlStopSign
	ControlLights
)

// LightSchedule describes one lane's slice of an intersection's signal
// cycle (spec.md §4.C "Lights schedule"). When AlwaysGreen is set (the
// k==1 degenerate case, spec.md §8 boundary behaviors) StateAt always
// returns Green regardless of CycleLength.
type LightSchedule struct {
	CycleLength int64 // L = 14*ceil(k/2)
	GreenTicks  int64 // 14-4 = 10
	OrangeTicks int64 // 4
	Offset      int64
	AlwaysGreen bool
}

// StateAt reports the signal color for t ticks since epoch 0.
func (s LightSchedule) StateAt(t int64) LightColor {
	if s.AlwaysGreen || s.CycleLength <= 0 {
		return Green
	}
	phase := ((t - s.Offset) % s.CycleLength + s.CycleLength) % s.CycleLength
	switch {
	case phase < s.GreenTicks:
		return Green
	case phase < s.GreenTicks+s.OrangeTicks:
		return Orange
	default:
		return Red
	}
}

// LightColor is the result of evaluating a LightSchedule at a tick.
type LightColor uint8

const (
	Green LightColor = iota
	Orange
	Red
)
