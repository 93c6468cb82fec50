package roadgraph

import (
	"math"

	"github.com/citysim/simcore/geom"
)

// regenerateTurns rebuilds every Turn at intersection id from scratch,
// applying TurnPolicy and LightPolicy deterministically (spec.md §4.C).
// Turns are never hand-edited; this is the sole place they are produced.
func (m *Map) regenerateTurns(id IntersectionID) {
	inter, ok := m.inters.get(id.Index, id.Gen)
	if !ok {
		return
	}
	m.turns.each(func(idx, gen uint32, t *Turn) {
		if t.Inter == id {
			m.turns.remove(idx, gen)
		}
	})
	inter.Turns = inter.Turns[:0]

	incoming, outgoing := m.incidentLanes(inter)

	leftTurnExists := m.generateDrivingTurns(inter, incoming, outgoing)
	m.generateRailTurns(inter, incoming, outgoing)
	m.generateWalkingTurns(inter, incoming, outgoing)

	m.applyTrafficControl(inter, incoming, leftTurnExists)
}

// incidentLanes returns the lanes arriving at (incoming) and departing
// from (outgoing) the intersection, across every road it references, in
// ascending (RoadID, LaneID) order for determinism.
func (m *Map) incidentLanes(inter *Intersection) (incoming, outgoing []*Lane) {
	roadIDs := sortedRoadIDs(inter.Roads)
	for _, rid := range roadIDs {
		road, ok := m.roads.get(rid.Index, rid.Gen)
		if !ok {
			continue
		}
		for _, lid := range append(append([]LaneID{}, road.LanesForward...), road.LanesBackward...) {
			lane, ok := m.lanes.get(lid.Index, lid.Gen)
			if !ok {
				continue
			}
			if lane.Dst == inter.ID {
				incoming = append(incoming, lane)
			}
			if lane.Src == inter.ID {
				outgoing = append(outgoing, lane)
			}
		}
	}
	return incoming, outgoing
}

func sortedRoadIDs(roads map[RoadID]struct{}) []RoadID {
	out := make([]RoadID, 0, len(roads))
	for r := range roads {
		out = append(out, r)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func less(a, b RoadID) bool { return a.Index < b.Index || (a.Index == b.Index && a.Gen < b.Gen) }

const backTurnAngle = 2.7 // radians, ~155deg; beyond this a turn is a u-turn

// turnAngle returns the signed angle (radians, positive = left / CCW) from
// the incoming lane's arrival heading to the outgoing lane's departure
// heading, both measured in the XY plane.
func turnAngle(in, out *Lane) float64 {
	var dIn geom.Vec3
	if len(in.Points) >= 2 {
		dIn = in.Points[len(in.Points)-1].Sub(in.Points[len(in.Points)-2])
	}
	var dOut geom.Vec3
	if len(out.Points) >= 2 {
		dOut = out.Points[1].Sub(out.Points[0])
	}
	a1 := math.Atan2(dIn.Y(), dIn.X())
	a2 := math.Atan2(dOut.Y(), dOut.X())
	d := a2 - a1
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// generateDrivingTurns emits one Driving Turn for every allowed
// (incoming, outgoing) non-rail, non-walking pair at the intersection, and
// reports whether any left turn was generated (used by the Smart light
// policy upgrade rule).
func (m *Map) generateDrivingTurns(inter *Intersection, incoming, outgoing []*Lane) bool {
	leftExists := false
	for _, in := range incoming {
		if in.Kind != Driving {
			continue
		}
		for _, out := range outgoing {
			if out.Kind != Driving {
				continue
			}
			if in.Parent == out.Parent {
				// Same road: only a back-turn (u-turn) is geometrically
				// meaningful here.
				if !inter.TurnPolicy.BackTurns {
					continue
				}
			}
			angle := turnAngle(in, out)
			switch {
			case math.Abs(angle) >= backTurnAngle:
				if !inter.TurnPolicy.BackTurns {
					continue
				}
			case angle > geom.Epsilon:
				// Left turn.
				if inter.TurnPolicy.Roundabout != nil {
					continue // right-of-way blocked by the roundabout
				}
				if !inter.TurnPolicy.LeftTurns {
					continue
				}
				leftExists = true
			default:
				// Straight or right turn: always allowed.
			}
			m.addTurn(inter.ID, in, out, TurnDriving, false)
		}
	}
	return leftExists
}

func (m *Map) generateRailTurns(inter *Intersection, incoming, outgoing []*Lane) {
	for _, in := range incoming {
		if in.Kind != Rail {
			continue
		}
		for _, out := range outgoing {
			if out.Kind != Rail {
				continue
			}
			m.addTurn(inter.ID, in, out, TurnRail, false)
		}
	}
}

// generateWalkingTurns emits WalkingCorner turns between adjacent walking
// lanes and, when Crosswalks is set, a Crosswalk turn across each road
// (spec.md §4.C).
func (m *Map) generateWalkingTurns(inter *Intersection, incoming, outgoing []*Lane) {
	for _, in := range incoming {
		if in.Kind != Walking {
			continue
		}
		for _, out := range outgoing {
			if out.Kind != Walking {
				continue
			}
			if in.Parent == out.Parent {
				continue
			}
			if !inter.TurnPolicy.Crosswalks && m.roadsOpposite(inter.ID, in.Parent, out.Parent) {
				m.addTurn(inter.ID, in, out, TurnWalkingCorner, true)
				continue
			}
			kind := TurnWalkingCorner
			if inter.TurnPolicy.Crosswalks && m.roadsOpposite(inter.ID, in.Parent, out.Parent) {
				kind = TurnCrosswalk
			}
			m.addTurn(inter.ID, in, out, kind, true)
		}
	}
}

// roadsOpposite reports whether a and b leave interID in roughly opposite
// directions (cosine of the angle between their outward directions below
// -0.5, i.e. more than 120 degrees apart) -- the geometric test for
// "across the intersection", needing a Crosswalk rather than a
// corner-hugging WalkingCorner. Either road missing a usable direction
// (degenerate geometry) falls back to "not the same road".
func (m *Map) roadsOpposite(interID IntersectionID, a, b RoadID) bool {
	da, ok1 := m.roadOutwardDir(interID, a)
	db, ok2 := m.roadOutwardDir(interID, b)
	if !ok1 || !ok2 {
		return a != b
	}
	return da.Normalize().Dot(db.Normalize()) < -0.5
}

// roadOutwardDir returns the direction road id points away from interID,
// using whichever endpoint of its polyline touches the intersection.
func (m *Map) roadOutwardDir(interID IntersectionID, id RoadID) (geom.Vec3, bool) {
	road, ok := m.Road(id)
	if !ok || len(road.Points) < 2 {
		return geom.Vec3{}, false
	}
	switch interID {
	case road.Src:
		return road.Points[1].Sub(road.Points[0]), true
	case road.Dst:
		n := len(road.Points)
		return road.Points[n-2].Sub(road.Points[n-1]), true
	default:
		return geom.Vec3{}, false
	}
}

func (m *Map) addTurn(interID IntersectionID, in, out *Lane, kind TurnKind, bidir bool) {
	idx, gen := m.turns.insert(Turn{
		Inter:         interID,
		SrcLane:       in.ID,
		DstLane:       out.ID,
		Bidirectional: bidir,
		Kind:          kind,
		Points:        geom.CubicSplinePoints(in.Points.Last(), laneArrivalDir(in), out.Points.First(), laneDepartureDir(out)),
	})
	id := TurnID{Index: idx, Gen: gen}
	t, _ := m.turns.get(idx, gen)
	t.ID = id
	if inter, ok := m.inters.get(interID.Index, interID.Gen); ok {
		inter.Turns = append(inter.Turns, t)
	}
}

func laneArrivalDir(l *Lane) geom.Vec3 {
	if len(l.Points) < 2 {
		return geom.Vec3{1, 0, 0}
	}
	return l.Points[len(l.Points)-1].Sub(l.Points[len(l.Points)-2])
}

func laneDepartureDir(l *Lane) geom.Vec3 {
	if len(l.Points) < 2 {
		return geom.Vec3{1, 0, 0}
	}
	return l.Points[1].Sub(l.Points[0])
}

// Traffic-control schedule constants (spec.md §4.C).
const (
	lightSlotLength = 14
	lightOrangeTime = 4
	lightGreenTime  = lightSlotLength - lightOrangeTime
)

// applyTrafficControl assigns each incoming driving lane's TrafficControl
// per the intersection's (possibly Smart-resolved) LightPolicy.
func (m *Map) applyTrafficControl(inter *Intersection, incoming []*Lane, leftTurnExists bool) {
	roadsSeen := make(map[RoadID]bool)
	var roadOrder []RoadID
	for _, in := range incoming {
		if in.Kind != Driving {
			continue
		}
		if !roadsSeen[in.Parent] {
			roadsSeen[in.Parent] = true
			roadOrder = append(roadOrder, in.Parent)
		}
	}
	k := len(roadOrder)

	policy := inter.LightPolicy
	if policy == Smart {
		if k >= 3 || leftTurnExists {
			policy = Lights
		} else {
			policy = StopSigns
		}
	}

	roadIndex := make(map[RoadID]int, k)
	for i, r := range roadOrder {
		roadIndex[r] = i
	}

	halfK := (k + 1) / 2
	if halfK == 0 {
		halfK = 1
	}
	cycle := int64(lightSlotLength * halfK)
	seed := seedOffset(inter.ID, cycle)

	for _, in := range incoming {
		if in.Kind != Driving {
			continue
		}
		switch policy {
		case Lights:
			i := roadIndex[in.Parent]
			schedule := LightSchedule{
				CycleLength: cycle,
				GreenTicks:  lightGreenTime,
				OrangeTicks: lightOrangeTime,
				Offset:      int64(lightSlotLength*(i%halfK)) + seed,
				AlwaysGreen: k <= 1,
			}
			in.Control = TrafficControl{Kind: ControlLights, Light: schedule}
		case StopSigns:
			in.Control = TrafficControl{Kind: ControlStopSign}
		default:
			in.Control = TrafficControl{Kind: ControlNone}
		}
	}
}

// seedOffset derives a deterministic per-intersection schedule offset from
// the intersection id alone (spec.md §4.C "Seed depends only on
// intersection id").
func seedOffset(id IntersectionID, cycle int64) int64 {
	if cycle <= 0 {
		return 0
	}
	h := uint64(id.Index)*2654435761 + uint64(id.Gen)*40503
	return int64(h % uint64(cycle))
}
