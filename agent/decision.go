package agent

import (
	"context"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/itinerary"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/tickpool"
)

// Kind discriminates the body driving a soul: its itinerary is stepped with
// different kinematics depending on which one it is (spec.md §4.G).
type Kind uint8

const (
	KindPedestrian Kind = iota
	KindVehicle
	KindTrain
	KindBird
)

// Body is one simulated physical entity: the itinerary decides where it is
// going, the Kind decides how it gets there.
type Body struct {
	Kind Kind

	Pedestrian PedestrianState
	Vehicle    VehicleState
	Bird       BirdState
	Train      TrainState

	WalkingSpeed float64
	MaxSpeed     float64
	Loco         Locomotive
	RailPath     geom.Polyline3
	Wagons       []Wagon

	Itin   itinerary.Itinerary
	Router *itinerary.Router
}

// StepBodies advances every body one tick in parallel using pool, each body
// touching only its own slice of bodies (spec.md §5's no-cross-observation
// rule within a phase). An agent whose itinerary fails CheckValidity is set
// to None and stands still until its Router produces a new one next tick
// (spec.md §4.E/§4.G).
func StepBodies(ctx context.Context, pool *tickpool.Pool, m *roadgraph.Map, bodies []*Body, tick int64, dt float64) error {
	return pool.Run(ctx, len(bodies), func(i int) error {
		b := bodies[i]
		if !b.Itin.CheckValidity(m) {
			return nil
		}
		target, ok := b.Itin.LocalTarget()
		if !ok {
			return nil
		}

		switch b.Kind {
		case KindPedestrian:
			b.Pedestrian = StepPedestrian(b.Pedestrian, target, b.WalkingSpeed, dt)
			if b.Pedestrian.Pos.Sub(target).Len() < geom.Epsilon {
				b.Itin.Advance(m)
			}
		case KindVehicle:
			var control roadgraph.TrafficControl
			b.Vehicle = StepVehicle(b.Vehicle, target, b.MaxSpeed, control, tick, nil, dt)
			if b.Vehicle.Pos.Sub(target).Len() < geom.Epsilon {
				b.Itin.Advance(m)
			}
		case KindTrain:
			b.Train = StepTrain(b.Train, b.Loco, b.RailPath, dt)
		case KindBird:
			b.Bird = StepBird(b.Bird, target, dt)
			if b.Bird.Pos.Sub(target).Len() < geom.Epsilon {
				b.Itin.Advance(m)
			}
		}
		return nil
	})
}
