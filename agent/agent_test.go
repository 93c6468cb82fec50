package agent

import (
	"math"
	"testing"

	"github.com/citysim/simcore/geom"
)

func TestStepPedestrianMovesTowardTarget(t *testing.T) {
	s := PedestrianState{Pos: geom.Vec3{0, 0, 0}}
	target := geom.Vec3{10, 0, 0}
	for i := 0; i < 500; i++ {
		s = StepPedestrian(s, target, DefaultWalkingSpeed, Delta)
	}
	if d := s.Pos.Sub(target).Len(); d > 0.5 {
		t.Fatalf("pedestrian did not converge on target, distance=%v", d)
	}
}

func TestStepPedestrianStopsAtTarget(t *testing.T) {
	s := PedestrianState{Pos: geom.Vec3{5, 5, 0}}
	s = StepPedestrian(s, geom.Vec3{5, 5, 0}, DefaultWalkingSpeed, Delta)
	if s.Speed != 0 {
		t.Fatalf("expected zero speed at target, got %v", s.Speed)
	}
}

func TestSafeFollowDistanceGrowsWithSpeed(t *testing.T) {
	if SafeFollowDistance(10) <= SafeFollowDistance(5) {
		t.Fatal("safe following distance should increase with speed")
	}
}

func TestAccelerateRespectsAsymmetricRates(t *testing.T) {
	up := Accelerate(0, 10, 1.0)
	if up != VehicleAccel {
		t.Fatalf("expected accel-limited step %v, got %v", VehicleAccel, up)
	}
	down := Accelerate(10, 0, 1.0)
	if down != 10-VehicleDecel {
		t.Fatalf("expected decel-limited step %v, got %v", 10-VehicleDecel, down)
	}
}

func TestCalculateLocomotiveTapersWithMass(t *testing.T) {
	light := CalculateLocomotive([]Wagon{{Length: 10, Mass: 100}})
	heavy := CalculateLocomotive([]Wagon{{Length: 10, Mass: 100}, {Length: 10, Mass: 5000}})
	if heavy.AccForce >= light.AccForce {
		t.Fatalf("heavier consist should accelerate no faster: light=%v heavy=%v", light.AccForce, heavy.AccForce)
	}
	if heavy.Length != 20 {
		t.Fatalf("expected summed length 20, got %v", heavy.Length)
	}
}

func TestStepTrainBrakesBeforeEndOfPath(t *testing.T) {
	path := geom.Polyline3{{0, 0, 0}, {100, 0, 0}}
	loco := CalculateLocomotive([]Wagon{{Length: 5, Mass: 200}})
	s := TrainState{Speed: loco.MaxSpeed}
	for i := 0; i < 2000 && s.Arclength < path.Length(); i++ {
		s = StepTrain(s, loco, path, Delta)
	}
	if s.Arclength > path.Length() {
		t.Fatalf("train overshot path: arclength=%v length=%v", s.Arclength, path.Length())
	}
}

func TestWagonPositionsTrailLocomotive(t *testing.T) {
	path := geom.Polyline3{{0, 0, 0}, {100, 0, 0}}
	wagons := []Wagon{{Length: 10}, {Length: 10}}
	pos := WagonPositions(path, 50, wagons)
	if pos[0].X() <= pos[1].X() {
		t.Fatalf("first wagon should be ahead of second: %v vs %v", pos[0].X(), pos[1].X())
	}
}

func TestTurnTowardsClampsToMaxDelta(t *testing.T) {
	got := turnTowards(0, math.Pi, 0.1)
	if math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("expected clamped step of 0.1, got %v", got)
	}
}

func TestStepBirdHoldsConstantSpeed(t *testing.T) {
	s := BirdState{Pos: geom.Vec3{0, 0, BirdCruiseAlt}}
	s = StepBird(s, geom.Vec3{100, 0, BirdCruiseAlt}, Delta)
	if math.Abs(s.Vel.Len()-BirdSpeed) > 1e-6 {
		t.Fatalf("expected constant bird speed %v, got %v", BirdSpeed, s.Vel.Len())
	}
}
