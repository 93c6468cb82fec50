package roadgraph

import "github.com/citysim/simcore/geom"

// TurnPolicy governs which turns an intersection generates (spec.md §4.C).
type TurnPolicy struct {
	LeftTurns  bool
	BackTurns  bool
	Crosswalks bool
	Roundabout *RoundaboutPolicy
}

// RoundaboutPolicy configures roundabout right-of-way blocking.
type RoundaboutPolicy struct {
	Radius float64
}

// LightPolicy selects the traffic-control discipline (spec.md §4.C).
type LightPolicy uint8

const (
	NoLights LightPolicy = iota
	StopSigns
	Lights
	Smart
)

// Intersection is a node of the road graph (spec.md §3).
type Intersection struct {
	ID    IntersectionID
	Pos   geom.Vec3
	Roads map[RoadID]struct{}

	TurnPolicy  TurnPolicy
	LightPolicy LightPolicy

	Turns []*Turn
}

// LanePattern describes the lanes a call to Connect should create, one
// entry per direction-agnostic lane slot; Kind and Width apply
// symmetrically to both directions as required by spec.md §3's "lane kinds
// partition consistently across both directions" invariant.
type LanePattern struct {
	LanesForward  []LaneKind
	LanesBackward []LaneKind
	Width         float64
}

// NLanes returns the total lane count described by the pattern.
func (p LanePattern) NLanes() int { return len(p.LanesForward) + len(p.LanesBackward) }

// Road connects two intersections (spec.md §3).
type Road struct {
	ID  RoadID
	Src IntersectionID
	Dst IntersectionID

	Points geom.Polyline3
	Width  float64

	LanesForward  []LaneID
	LanesBackward []LaneID
}

// Length returns the centerline length of the road.
func (r *Road) Length() float64 { return r.Points.Length() }

// Lane is a single traversable strip of a Road (spec.md §3).
type Lane struct {
	ID     LaneID
	Parent RoadID
	Kind   LaneKind
	Points geom.Polyline3
	// Control is indexed by the Lane's Dst intersection; spec.md has one
	// TrafficControl per lane end, not per lane, but since every lane only
	// terminates driving movement at Dst, storing it here is equivalent
	// and keeps lookups O(1) on the hot pathfinding/decision path.
	Control TrafficControl
	Src     IntersectionID
	Dst     IntersectionID
}

// Length returns the lane's centerline length.
func (l *Lane) Length() float64 { return l.Points.Length() }

// TurnKind enumerates the turn categories named in spec.md §3.
type TurnKind uint8

const (
	TurnDriving TurnKind = iota
	TurnCrosswalk
	TurnWalkingCorner
	TurnRail
)

// Turn connects two lanes through an intersection (spec.md §3). Turns are
// always generated by TurnPolicy/LightPolicy, never hand-edited.
type Turn struct {
	ID        TurnID
	Inter     IntersectionID
	SrcLane   LaneID
	DstLane   LaneID
	Bidirectional bool
	Kind      TurnKind
	Points    geom.Polyline3
}

// ParkingSpot is generated along a Parking lane at fixed stride (spec.md §3).
type ParkingSpot struct {
	ID       ParkingSpotID
	Parent   LaneID
	Pos      geom.Vec3
	Dir      geom.Vec3
	Reserved bool
}

// ParkingSpotStride is the fixed distance between generated parking spots.
const ParkingSpotStride = 8.0

// LotKind enumerates the kinds of Lot generated along roads.
type LotKind uint8

const (
	LotResidential LotKind = iota
	LotCommercial
)

// Lot is generated along roads (spec.md §3); removed with its parent road
// or when overlapping new construction.
type Lot struct {
	ID     LotID
	Parent RoadID
	Kind   LotKind
	Shape  geom.OBB
	Height float64
}

// Zone is a building's operational footprint (spec.md §3, GLOSSARY).
type Zone struct {
	Polygon []geom.Vec2
	Area    float64
	FillDir geom.Vec2
}

// MaxZoneArea bounds Zone.Area (spec.md §8 boundary behaviors).
const MaxZoneArea = 100_000.0 // m^2

// BuildingKind enumerates building categories (registries for concrete
// prototypes are injected externally, per spec.md §1 out-of-scope).
type BuildingKind uint32

// Building is a placed structure, optionally zoned (spec.md §3).
type Building struct {
	ID      BuildingID
	Kind    BuildingKind
	OBB     geom.OBB
	DoorPos geom.Vec3
	Height  float64
	Zone    *Zone
}
