package power

import (
	"testing"

	"github.com/citysim/simcore/roadgraph"
)

type fakeSource map[roadgraph.BuildingID][2]float64

func (f fakeSource) PowerConsumed(b roadgraph.BuildingID) float64 { return f[b][0] }
func (f fakeSource) PowerProduced(b roadgraph.BuildingID) float64 { return f[b][1] }

func TestComputeFlowClampsToOne(t *testing.T) {
	f := ComputeFlow(10, 100)
	if f.Productivity != 1 {
		t.Fatalf("expected productivity clamped to 1, got %v", f.Productivity)
	}
}

func TestComputeFlowNoConsumptionIsFullProductivity(t *testing.T) {
	f := ComputeFlow(0, 0)
	if f.Productivity != 1 {
		t.Fatalf("expected full productivity with no consumption, got %v", f.Productivity)
	}
}

func TestSolverTickAggregatesPerNetwork(t *testing.T) {
	s := NewSolver()
	n := s.NewNetwork()
	b1 := roadgraph.BuildingID{Index: 1}
	b2 := roadgraph.BuildingID{Index: 2}
	n.Add(b1)
	n.Add(b2)

	src := fakeSource{b1: [2]float64{10, 0}, b2: [2]float64{0, 5}}
	s.Tick(src)

	if got := s.Productivity(n.ID); got != 0.5 {
		t.Fatalf("expected productivity 0.5, got %v", got)
	}
}

func TestSolverProductivityDefaultsToFullForUnknownNetwork(t *testing.T) {
	s := NewSolver()
	if got := s.Productivity(NetworkID(999)); got != 1.0 {
		t.Fatalf("expected default full productivity, got %v", got)
	}
}
