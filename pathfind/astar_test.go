package pathfind

import (
	"testing"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

func buildLine(t *testing.T, m *roadgraph.Map, points ...geom.Vec3) []roadgraph.IntersectionID {
	t.Helper()
	ids := make([]roadgraph.IntersectionID, len(points))
	for i, p := range points {
		ids[i] = m.AddIntersection(p)
	}
	pattern := roadgraph.LanePattern{
		LanesForward:  []roadgraph.LaneKind{roadgraph.Driving},
		LanesBackward: []roadgraph.LaneKind{roadgraph.Driving},
		Width:         6,
	}
	for i := 0; i < len(ids)-1; i++ {
		if _, err := m.Connect(ids[i], ids[i+1], pattern); err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
		if err := m.UpdateIntersectionPolicy(ids[i+1], roadgraph.TurnPolicy{LeftTurns: true, BackTurns: true}, roadgraph.NoLights); err != nil {
			t.Fatalf("policy: %v", err)
		}
	}
	if err := m.UpdateIntersectionPolicy(ids[0], roadgraph.TurnPolicy{LeftTurns: true, BackTurns: true}, roadgraph.NoLights); err != nil {
		t.Fatalf("policy: %v", err)
	}
	return ids
}

func TestVehiclePathSameLaneIsTrivial(t *testing.T) {
	m := roadgraph.NewMap(nil)
	ids := buildLine(t, m, geom.Vec3{0, 0, 0}, geom.Vec3{50, 0, 0})
	road, _ := m.Road(roadIDOf(t, m, ids[0], ids[1]))
	lane := road.LanesForward[0]

	path, ok := VehiclePath(m, lane, lane)
	if !ok {
		t.Fatal("expected trivial path to be found")
	}
	if len(path) != 1 {
		t.Fatalf("expected single-node path, got %d", len(path))
	}
}

func TestVehiclePathAcrossIntersection(t *testing.T) {
	m := roadgraph.NewMap(nil)
	ids := buildLine(t, m, geom.Vec3{0, 0, 0}, geom.Vec3{50, 0, 0}, geom.Vec3{100, 0, 0})

	road1, _ := m.Road(roadIDOf(t, m, ids[0], ids[1]))
	road2, _ := m.Road(roadIDOf(t, m, ids[1], ids[2]))

	path, ok := VehiclePath(m, road1.LanesForward[0], road2.LanesForward[0])
	if !ok {
		t.Fatal("expected a path across the intersection")
	}
	if len(path) < 3 {
		t.Fatalf("expected lane-turn-lane path, got %d entries", len(path))
	}
}

// roadIDOf is a test helper locating the road connecting a and b.
func roadIDOf(t *testing.T, m *roadgraph.Map, a, b roadgraph.IntersectionID) roadgraph.RoadID {
	t.Helper()
	var found roadgraph.RoadID
	ok := false
	interA, _ := m.Intersection(a)
	for rid := range interA.Roads {
		r, _ := m.Road(rid)
		if (r.Src == a && r.Dst == b) || (r.Src == b && r.Dst == a) {
			found, ok = rid, true
			break
		}
	}
	if !ok {
		t.Fatalf("no road between %v and %v", a, b)
	}
	return found
}
