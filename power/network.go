// Package power implements the electricity-flow solver (spec.md §4.J):
// buildings are partitioned into ElectricityNetworks, and each tick every
// network's produced/consumed totals are summed into a productivity ratio
// that throttles the companies drawing power from it.
package power

import "github.com/citysim/simcore/roadgraph"

// NetworkID identifies one electricity network.
type NetworkID uint32

// Network is a set of buildings sharing one electricity grid.
type Network struct {
	ID        NetworkID
	Buildings map[roadgraph.BuildingID]struct{}
}

// NewNetwork returns an empty network with the given id.
func NewNetwork(id NetworkID) *Network {
	return &Network{ID: id, Buildings: make(map[roadgraph.BuildingID]struct{})}
}

// Add puts building on this network.
func (n *Network) Add(b roadgraph.BuildingID) { n.Buildings[b] = struct{}{} }

// Remove takes building off this network.
func (n *Network) Remove(b roadgraph.BuildingID) { delete(n.Buildings, b) }

// Flow is the per-tick supply/demand summary of a network, and the
// productivity ratio every company on it reads back (spec.md §4.J).
type Flow struct {
	Consumed     float64
	Produced     float64
	Productivity float64 // min(produced/consumed, 1), or 1 if no consumption
}

// ComputeFlow derives the productivity ratio from summed consumed/produced.
func ComputeFlow(consumed, produced float64) Flow {
	f := Flow{Consumed: consumed, Produced: produced}
	if consumed <= 0 {
		f.Productivity = 1
		return f
	}
	f.Productivity = produced / consumed
	if f.Productivity > 1 {
		f.Productivity = 1
	}
	return f
}

// Source is something the solver can read a building's raw consumed and
// produced wattage from; company draw is scaled by its own raw
// productivity (spec.md §4.J: "consumed... scaled by each company's raw
// productivity").
type Source interface {
	PowerConsumed(b roadgraph.BuildingID) float64
	PowerProduced(b roadgraph.BuildingID) float64
}

// Solver owns the set of networks and recomputes every network's Flow once
// per tick.
type Solver struct {
	networks map[NetworkID]*Network
	flows    map[NetworkID]Flow
	nextID   NetworkID
}

// NewSolver returns an empty Solver.
func NewSolver() *Solver {
	return &Solver{networks: make(map[NetworkID]*Network), flows: make(map[NetworkID]Flow)}
}

// NewNetwork allocates and registers a fresh, empty network.
func (s *Solver) NewNetwork() *Network {
	s.nextID++
	n := NewNetwork(s.nextID)
	s.networks[n.ID] = n
	return n
}

// RemoveNetwork deregisters a network, e.g. once it has no buildings left.
func (s *Solver) RemoveNetwork(id NetworkID) {
	delete(s.networks, id)
	delete(s.flows, id)
}

// Tick recomputes every network's Flow from src.
func (s *Solver) Tick(src Source) {
	for id, n := range s.networks {
		var consumed, produced float64
		for b := range n.Buildings {
			consumed += src.PowerConsumed(b)
			produced += src.PowerProduced(b)
		}
		s.flows[id] = ComputeFlow(consumed, produced)
	}
}

// Productivity returns the last-computed productivity ratio for id, or 1.0
// (full power) if id is unknown -- an unpowered/ungridded building should
// never be throttled by a solver that has never seen it.
func (s *Solver) Productivity(id NetworkID) float64 {
	f, ok := s.flows[id]
	if !ok {
		return 1.0
	}
	return f.Productivity
}
