package wcmd

import (
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/roadgraph"
)

// SpawnTrain names a single train consist on a rail lane at a given
// arclength distance, costing 1000 + 100 per wagon (spec.md §4.N, §6).
// Apply only checks that Lane is a live rail lane; it creates no train.
type SpawnTrain struct {
	Lane     roadgraph.LaneID
	Dist     float64
	NWagons  int
}

func (c SpawnTrain) Tag() string      { return "SpawnTrain" }
func (c SpawnTrain) Cost() econ.Money { return TrainCost(c.NWagons) }

func (c SpawnTrain) Apply(m *roadgraph.Map) error {
	lane, ok := m.Lane(c.Lane)
	if !ok || lane.Kind != roadgraph.Rail {
		return roadgraph.ErrUnknownHandle
	}
	return nil
}

// AddTrain has the same fields, cost and Apply as SpawnTrain; the two exist
// as the separate variants named in spec.md §6.
type AddTrain struct {
	Lane    roadgraph.LaneID
	Dist    float64
	NWagons int
}

func (c AddTrain) Tag() string      { return "AddTrain" }
func (c AddTrain) Cost() econ.Money { return TrainCost(c.NWagons) }

func (c AddTrain) Apply(m *roadgraph.Map) error {
	lane, ok := m.Lane(c.Lane)
	if !ok || lane.Kind != roadgraph.Rail {
		return roadgraph.ErrUnknownHandle
	}
	return nil
}
