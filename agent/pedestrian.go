package agent

import (
	"math"

	"github.com/citysim/simcore/geom"
)

// PedestrianState is the per-tick physical state of a walking agent.
type PedestrianState struct {
	Pos     geom.Vec3
	Vel     geom.Vec3
	Heading float64 // radians
	Speed   float64 // m/s, capped at WalkingSpeed
}

// StepPedestrian computes the desired velocity toward target capped at
// walkingSpeed, limits the angular velocity, and integrates position
// (spec.md §4.G: "no explicit collision avoidance beyond polite speed cap
// and soft lane bias").
func StepPedestrian(s PedestrianState, target geom.Vec3, walkingSpeed float64, dt float64) PedestrianState {
	if walkingSpeed <= 0 {
		walkingSpeed = DefaultWalkingSpeed
	}
	toTarget := target.Sub(s.Pos)
	dist := toTarget.Len()
	if dist < geom.Epsilon {
		s.Vel = geom.Vec3{}
		s.Speed = 0
		return s
	}
	desiredHeading := math.Atan2(toTarget.Y(), toTarget.X())
	s.Heading = turnTowards(s.Heading, desiredHeading, PedestrianMaxAngVel*dt)

	// Soft lane bias: slow down when not yet facing the target, matching
	// the "polite speed cap" rule rather than hard-clamping to zero.
	headingError := math.Abs(angleDiff(s.Heading, desiredHeading))
	speedFactor := 1.0
	if headingError > 0.1 {
		speedFactor = math.Max(0.2, 1-headingError/math.Pi)
	}
	targetSpeed := math.Min(walkingSpeed, dist/dt) * speedFactor

	s.Speed = targetSpeed
	s.Vel = geom.Vec3{math.Cos(s.Heading) * s.Speed, math.Sin(s.Heading) * s.Speed, 0}
	s.Pos = SemiImplicitEuler(s.Pos, s.Vel, dt)
	return s
}

func angleDiff(a, b float64) float64 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func turnTowards(cur, target, maxDelta float64) float64 {
	d := angleDiff(cur, target)
	if d > maxDelta {
		d = maxDelta
	} else if d < -maxDelta {
		d = -maxDelta
	}
	return cur + d
}
