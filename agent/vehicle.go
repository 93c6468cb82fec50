package agent

import (
	"math"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

// VehicleState is the per-tick physical state of a driving agent.
type VehicleState struct {
	Pos     geom.Vec3
	Vel     geom.Vec3
	Heading float64
	Speed   float64
}

// VehicleNeighbor is the minimal information needed about the vehicle
// directly ahead to apply the safety-distance brake rule.
type VehicleNeighbor struct {
	Distance float64
	Speed    float64
}

// StepVehicle follows the lane centerline towards lookahead, respecting a
// maximum speed, braking for a red traffic light and for a front
// neighbor inside the safety distance v^2/(2*DECEL) (spec.md §4.G).
func StepVehicle(s VehicleState, lookahead geom.Vec3, maxSpeed float64, control roadgraph.TrafficControl, tick int64, front *VehicleNeighbor, dt float64) VehicleState {
	toTarget := lookahead.Sub(s.Pos)
	dist := toTarget.Len()
	desiredHeading := s.Heading
	if dist > geom.Epsilon {
		desiredHeading = math.Atan2(toTarget.Y(), toTarget.X())
	}
	maxAngVel := s.Speed / VehicleMinTurnRadius
	if maxAngVel <= 0 {
		maxAngVel = math.Pi
	}
	s.Heading = turnTowards(s.Heading, desiredHeading, maxAngVel*dt)

	target := maxSpeed
	if !SignalAllowsGo(control, tick) && dist < SafeFollowDistance(s.Speed)+4 {
		target = 0
	}
	if front != nil {
		safe := SafeFollowDistance(s.Speed)
		if front.Distance < safe {
			target = math.Min(target, math.Max(0, front.Speed-1))
		}
	}
	s.Speed = Accelerate(s.Speed, ClampSpeed(target, maxSpeed), dt)
	s.Vel = geom.Vec3{math.Cos(s.Heading) * s.Speed, math.Sin(s.Heading) * s.Speed, 0}
	s.Pos = SemiImplicitEuler(s.Pos, s.Vel, dt)
	return s
}
