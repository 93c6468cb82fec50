package wcmd

import (
	"testing"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

func TestConnectionCostMatchesScenario(t *testing.T) {
	pattern := roadgraph.LanePattern{LanesForward: []roadgraph.LaneKind{roadgraph.Driving, roadgraph.Driving}, LanesBackward: []roadgraph.LaneKind{roadgraph.Driving, roadgraph.Driving}, Width: 3.5}
	cmd := MapMakeConnection{From: geom.Vec3{0, 0, 0}, To: geom.Vec3{100, 0, 0}, Pattern: pattern}
	if got, want := cmd.Cost(), econ.NewMoney(56); got != want {
		t.Fatalf("expected cost 56, got %v", got)
	}
}

func TestMapMakeConnectionAppliesAndChargesBudget(t *testing.T) {
	m := roadgraph.NewMap(nil)
	gov := econ.NewGovernment(econ.NewMoney(1000))
	pattern := roadgraph.LanePattern{LanesForward: []roadgraph.LaneKind{roadgraph.Driving, roadgraph.Driving}, LanesBackward: []roadgraph.LaneKind{roadgraph.Driving, roadgraph.Driving}, Width: 3.5}
	cmd := MapMakeConnection{From: geom.Vec3{0, 0, 0}, To: geom.Vec3{100, 0, 0}, Pattern: pattern}

	if err := Execute(gov, m, cmd); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gov.Money != econ.NewMoney(1000)-econ.NewMoney(56) {
		t.Fatalf("expected budget debited by 56, got %v remaining", gov.Money)
	}

	count := 0
	m.Roads(func(*roadgraph.Road) { count++ })
	if count != 1 {
		t.Fatalf("expected 1 road created, got %d", count)
	}
}

func TestExecuteRejectsInsufficientFunds(t *testing.T) {
	m := roadgraph.NewMap(nil)
	gov := econ.NewGovernment(econ.NewMoney(10))
	pattern := roadgraph.LanePattern{LanesForward: []roadgraph.LaneKind{roadgraph.Driving}, LanesBackward: []roadgraph.LaneKind{roadgraph.Driving}, Width: 3.5}
	cmd := MapMakeConnection{From: geom.Vec3{0, 0, 0}, To: geom.Vec3{100, 0, 0}, Pattern: pattern}

	err := Execute(gov, m, cmd)
	if err != ErrRejectedInsufficientFunds {
		t.Fatalf("expected insufficient-funds rejection, got %v", err)
	}
	if gov.Money != econ.NewMoney(10) {
		t.Fatalf("expected budget untouched after rejection, got %v", gov.Money)
	}
}

func TestMultipleConnectionsCostIsSumOfEdges(t *testing.T) {
	pattern := roadgraph.LanePattern{LanesForward: []roadgraph.LaneKind{roadgraph.Driving}, LanesBackward: []roadgraph.LaneKind{roadgraph.Driving}, Width: 3.5}
	cmd := MapMakeMultipleConnections{Waypoints: []geom.Vec3{{0, 0, 0}, {100, 0, 0}, {200, 0, 0}}, Pattern: pattern}
	single := ConnectionCost(100, 1)
	if got := cmd.Cost(); got != single*2 {
		t.Fatalf("expected sum-of-edges cost %v, got %v", single*2, got)
	}
}

func TestSendMessageNormalizesAndTruncates(t *testing.T) {
	long := make([]rune, MaxMessageLength+50)
	for i := range long {
		long[i] = 'a'
	}
	cmd := SendMessage{From: "alice", Message: string(long)}
	got := cmd.Normalize()
	if len([]rune(got.Message)) != MaxMessageLength {
		t.Fatalf("expected message truncated to %d runes, got %d", MaxMessageLength, len([]rune(got.Message)))
	}
}
