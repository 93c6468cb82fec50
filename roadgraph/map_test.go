package roadgraph

import (
	"testing"

	"github.com/citysim/simcore/geom"
)

func twoLanePattern() LanePattern {
	return LanePattern{
		LanesForward:  []LaneKind{Driving, Driving},
		LanesBackward: []LaneKind{Driving, Driving},
		Width:         8,
	}
}

func TestConnectCreatesRoadAndDeadEndHasNoTurns(t *testing.T) {
	m := NewMap(nil)
	a := m.AddIntersection(geom.Vec3{0, 0, 0})
	b := m.AddIntersection(geom.Vec3{100, 0, 0})

	rid, err := m.Connect(a, b, twoLanePattern())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	road, ok := m.Road(rid)
	if !ok {
		t.Fatal("road not found after Connect")
	}
	if len(road.LanesForward) != 2 || len(road.LanesBackward) != 2 {
		t.Fatalf("expected 2+2 lanes, got %d+%d", len(road.LanesForward), len(road.LanesBackward))
	}

	interA, _ := m.Intersection(a)
	interB, _ := m.Intersection(b)
	if len(interA.Turns) != 0 || len(interB.Turns) != 0 {
		t.Fatalf("dead-end intersections should have no turns: %d, %d", len(interA.Turns), len(interB.Turns))
	}
}

func TestZeroLaneRoadRejected(t *testing.T) {
	m := NewMap(nil)
	a := m.AddIntersection(geom.Vec3{0, 0, 0})
	b := m.AddIntersection(geom.Vec3{10, 0, 0})
	if _, err := m.Connect(a, b, LanePattern{}); err != ErrZeroLanes {
		t.Fatalf("expected ErrZeroLanes, got %v", err)
	}
}

func TestSecondRoadGeneratesTurns(t *testing.T) {
	m := NewMap(nil)
	a := m.AddIntersection(geom.Vec3{0, 0, 0})
	b := m.AddIntersection(geom.Vec3{100, 0, 0})
	c := m.AddIntersection(geom.Vec3{100, 100, 0})

	if _, err := m.Connect(a, b, twoLanePattern()); err != nil {
		t.Fatalf("connect a-b: %v", err)
	}
	if err := m.UpdateIntersectionPolicy(b, TurnPolicy{LeftTurns: true}, NoLights); err != nil {
		t.Fatalf("update policy: %v", err)
	}
	if _, err := m.Connect(b, c, twoLanePattern()); err != nil {
		t.Fatalf("connect b-c: %v", err)
	}

	interB, _ := m.Intersection(b)
	if len(interB.Turns) == 0 {
		t.Fatal("expected turns to be generated at the 3-way intersection")
	}

	// With left turns disabled, re-running policy should drop left turns.
	if err := m.UpdateIntersectionPolicy(b, TurnPolicy{LeftTurns: false}, NoLights); err != nil {
		t.Fatalf("update policy: %v", err)
	}
	for _, tn := range interB.Turns {
		if tn.Kind != TurnDriving {
			continue
		}
		in, _ := m.Lane(tn.SrcLane)
		out, _ := m.Lane(tn.DstLane)
		if turnAngle(in, out) > geom.Epsilon {
			t.Fatalf("left turn %v survived with LeftTurns disabled", tn.ID)
		}
	}
}

func TestRemoveRoadIsUndoneCleanly(t *testing.T) {
	m := NewMap(nil)
	a := m.AddIntersection(geom.Vec3{0, 0, 0})
	b := m.AddIntersection(geom.Vec3{100, 0, 0})
	rid, err := m.Connect(a, b, twoLanePattern())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := m.RemoveRoad(rid); err != nil {
		t.Fatalf("remove_road: %v", err)
	}
	if _, ok := m.Road(rid); ok {
		t.Fatal("road should no longer resolve after removal")
	}
	interA, _ := m.Intersection(a)
	if len(interA.Roads) != 0 {
		t.Fatalf("intersection should have no roads left, got %d", len(interA.Roads))
	}
}

func TestBuildingAtMaxZoneAreaAccepted(t *testing.T) {
	m := NewMap(nil)
	obb := geom.NewOBB(geom.Vec2{500, 500}, geom.Vec2{1, 0}, 50, 50)
	_, err := m.AddBuilding(Building{
		OBB:  obb,
		Zone: &Zone{Area: MaxZoneArea},
	})
	if err != nil {
		t.Fatalf("building at MaxZoneArea should be accepted: %v", err)
	}

	obb2 := geom.NewOBB(geom.Vec2{1500, 1500}, geom.Vec2{1, 0}, 50, 50)
	_, err = m.AddBuilding(Building{
		OBB:  obb2,
		Zone: &Zone{Area: MaxZoneArea + 1},
	})
	if err == nil {
		t.Fatal("building above MaxZoneArea should be rejected")
	}
}
