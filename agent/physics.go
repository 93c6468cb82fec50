// Package agent implements the per-tick decision and kinematics for
// pedestrians, vehicles, trains and birds (spec.md §4.G). The per-agent
// StepPedestrian, StepVehicle, StepTrain and StepBird functions are pure
// functions of their inputs and perform semi-implicit
// Euler integration at the fixed tick step Delta, matching the
// single-logical-thread-per-tick model in spec.md §5.
package agent

import (
	"math"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

// Delta is the fixed simulation step, derived from the default 20ms tick
// (GLOSSARY).
const Delta = 0.02

// Kinematic constants (spec.md §4.G).
const (
	DefaultWalkingSpeed = 1.4 // m/s
	PedestrianMaxAngVel = math.Pi // rad/s

	VehicleAccel        = 3.0 // m/s^2
	VehicleDecel        = 9.0 // m/s^2
	VehicleMinTurnRadius = 6.0 // m
)

// SemiImplicitEuler advances pos/vel by dt using the already-updated
// velocity, the integration scheme named in spec.md §4.G.
func SemiImplicitEuler(pos, vel geom.Vec3, dt float64) geom.Vec3 {
	return pos.Add(vel.Mul(dt))
}

// SafeFollowDistance returns the minimum following distance for a vehicle
// travelling at v to be able to stop before a slower/stopped neighbor,
// v^2/(2*DECEL) (spec.md §4.G).
func SafeFollowDistance(v float64) float64 {
	return (v * v) / (2 * VehicleDecel)
}

// ClampSpeed bounds v to [0, max].
func ClampSpeed(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Accelerate moves the current speed towards target at rate accel/decel
// per second, over dt.
func Accelerate(current, target, dt float64) float64 {
	if target > current {
		return math.Min(target, current+VehicleAccel*dt)
	}
	return math.Max(target, current-VehicleDecel*dt)
}

// SignalAllowsGo reports whether a vehicle may proceed through control at
// tick t (Green or Orange with vehicles already committed pass; Red stops
// new arrivals). Stop signs always require stopping once, modeled by the
// caller tracking a has-stopped flag; this function only resolves lights.
func SignalAllowsGo(c roadgraph.TrafficControl, t int64) bool {
	switch c.Kind {
	case roadgraph.ControlLights:
		return c.Light.StateAt(t) != roadgraph.Red
	default:
		return true
	}
}
