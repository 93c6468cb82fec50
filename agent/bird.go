package agent

import (
	"math"

	"github.com/citysim/simcore/geom"
)

// BirdState is the free-flight state of a bird agent: birds are not bound to
// the road graph and wander above it (spec.md §4.G).
type BirdState struct {
	Pos     geom.Vec3
	Vel     geom.Vec3
	Heading float64
	BankAng float64
}

const (
	BirdSpeed      = 10.0
	BirdMaxAngVel  = math.Pi / 2
	BirdCruiseAlt  = 30.0
)

// StepBird flies towards target at constant BirdSpeed, banking into turns
// and holding cruise altitude.
func StepBird(s BirdState, target geom.Vec3, dt float64) BirdState {
	toTarget := target.Sub(s.Pos)
	toTarget[2] = 0
	dist := toTarget.Len()
	if dist > geom.Epsilon {
		desired := math.Atan2(toTarget.Y(), toTarget.X())
		prevHeading := s.Heading
		s.Heading = turnTowards(s.Heading, desired, BirdMaxAngVel*dt)
		s.BankAng = turnTowards(s.BankAng, angleDiff(prevHeading, s.Heading)*4, math.Pi*dt)
	} else {
		s.BankAng = turnTowards(s.BankAng, 0, math.Pi*dt)
	}
	s.Vel = geom.Vec3{math.Cos(s.Heading) * BirdSpeed, math.Sin(s.Heading) * BirdSpeed, 0}
	s.Pos = SemiImplicitEuler(s.Pos, s.Vel, dt)
	return s
}
