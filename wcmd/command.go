// Package wcmd implements the WorldCommand surface (spec.md §4.N / §6): the
// tagged union of every externally induced world mutation, each carrying
// its own cost formula and apply logic. A command is executed only if the
// Government can afford its Cost(); otherwise it is rejected at ingress
// and never reaches the tick log (spec.md §7 Input-invalid).
package wcmd

import (
	"errors"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/spatial"
)

// Command is a WorldCommand: priced, serializable, and self-applying.
type Command interface {
	// Tag satisfies sim.Command, identifying the concrete variant for
	// logging and wire dispatch.
	Tag() string
	// Cost computes this command's price in the government's budget.
	Cost() econ.Money
	// Apply executes the mutation against the world's map. It never
	// touches the budget: every charge, including MapBuildSpecialBuilding's
	// zone-area surcharge, is part of Cost.
	Apply(m *roadgraph.Map) error
}

var (
	// ErrRejectedInsufficientFunds is returned by Execute when the
	// government cannot afford a command's Cost.
	ErrRejectedInsufficientFunds = errors.New("wcmd: insufficient government funds")
)

// ConnectionCost computes the cost of building a road of the given length
// with lanesPerDirection driving+ lanes in one direction (spec.md §8
// scenario 1: 100m, 2 lanes/direction -> 50 + 0.03*100*2 = 56).
func ConnectionCost(length float64, lanesPerDirection int) econ.Money {
	return econ.Money((50+0.03*length*float64(lanesPerDirection))*100 + 0.5)
}

// TrainCost computes the cost of spawning a train with the given wagon
// count: 1000 + 100 per wagon.
func TrainCost(wagons int) econ.Money {
	return econ.NewMoney(int64(1000 + 100*wagons))
}

// Execute charges gov for cmd.Cost() and, if affordable, applies cmd to m.
// Insufficient funds rejects the command without touching m or the tick
// log (the caller is expected to not append a rejected command).
func Execute(gov *econ.Government, m *roadgraph.Map, cmd Command) error {
	cost := cmd.Cost()
	if !gov.Deduct(cost) {
		return ErrRejectedInsufficientFunds
	}
	if err := cmd.Apply(m); err != nil {
		gov.Credit(cost)
		return err
	}
	return nil
}

// nearestOrNewIntersection finds an existing intersection within tolerance
// of pos, or creates a fresh one there -- the ingress behavior implied by
// MapMakeConnection taking bare positions rather than intersection ids.
func nearestOrNewIntersection(m *roadgraph.Map, pos geom.Vec3, tolerance float64) roadgraph.IntersectionID {
	if proj, ok := m.Project(pos, tolerance, spatial.Filter(spatial.KindIntersection)); ok && proj.Kind == spatial.KindIntersection {
		return proj.Inter
	}
	return m.AddIntersection(pos)
}
