package agent

import (
	"math"

	"github.com/citysim/simcore/geom"
)

// Locomotive is the aggregate performance envelope of a train, derived from
// its wagon consist (spec.md §4.G: "calculate_locomotive(wagons) giving
// {max_speed, acc_force, dec_force, length}").
type Locomotive struct {
	MaxSpeed float64
	AccForce float64
	DecForce float64
	Length   float64
}

// Wagon describes one car in a consist: its own length and mass contribution.
type Wagon struct {
	Length float64
	Mass   float64
}

const (
	baseWagonMaxSpeed = 25.0 // m/s
	baseAccForce      = 1.5  // m/s^2, scaled down per added mass unit
	baseDecForce      = 2.5  // m/s^2
)

// CalculateLocomotive aggregates a consist's wagons into a single kinematic
// envelope: total length is additive, max speed is the fixed
// baseWagonMaxSpeed whatever the wagons, and accel/decel force tapers as
// total mass grows (heavier trains accelerate and brake more gently).
func CalculateLocomotive(wagons []Wagon) Locomotive {
	if len(wagons) == 0 {
		return Locomotive{MaxSpeed: baseWagonMaxSpeed, AccForce: baseAccForce, DecForce: baseDecForce}
	}
	var length, mass float64
	for _, w := range wagons {
		length += w.Length
		mass += w.Mass
	}
	taper := 1.0 / (1.0 + mass/1000.0)
	return Locomotive{
		MaxSpeed: baseWagonMaxSpeed,
		AccForce: baseAccForce * taper,
		DecForce: baseDecForce * taper,
		Length:   length,
	}
}

// TrainState is the position of the locomotive (head of the consist) along
// its rail polyline, expressed as arclength travelled plus raw kinematics.
type TrainState struct {
	Arclength float64
	Speed     float64
}

// StepTrain advances the locomotive's arclength along path, braking towards
// zero near the end of the path and otherwise driving at loco.MaxSpeed.
func StepTrain(s TrainState, loco Locomotive, path geom.Polyline3, dt float64) TrainState {
	total := path.Length()
	remaining := total - s.Arclength
	target := loco.MaxSpeed
	stopDist := (s.Speed * s.Speed) / (2 * math.Max(loco.DecForce, 0.01))
	if remaining < stopDist+loco.Length {
		target = 0
	}
	if target > s.Speed {
		s.Speed = math.Min(target, s.Speed+loco.AccForce*dt)
	} else {
		s.Speed = math.Max(target, s.Speed-loco.DecForce*dt)
	}
	s.Arclength = math.Min(total, s.Arclength+s.Speed*dt)
	return s
}

// WagonPositions returns the world position of each wagon (locomotive first)
// trailing the head arclength with fixed spacing equal to each wagon's own
// length, following the rail polyline.
func WagonPositions(path geom.Polyline3, headArclength float64, wagons []Wagon) []geom.Vec3 {
	positions := make([]geom.Vec3, len(wagons))
	at := headArclength
	for i, w := range wagons {
		at -= w.Length
		if at < 0 {
			at = 0
		}
		positions[i] = path.PointAtArclength(at)
	}
	return positions
}
