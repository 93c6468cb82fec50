// Package world wires every subsystem package into one fixed per-tick
// schedule (spec.md §5), owning the shared Resources every phase reads or
// mutates.
package world

import (
	"log/slog"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/econ/market"
	"github.com/citysim/simcore/power"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
	"github.com/citysim/simcore/spatial"
	"github.com/citysim/simcore/subscribe"
)

// Resources is the global state shared across tick phases (spec.md §9
// "Global state"). It carries no tick logic itself; World sequences
// access to it.
type Resources struct {
	Clock     *sim.Clock
	Commands  *sim.CommandLog
	Gov       *econ.Government
	Items     *econ.ItemRegistry
	Market    *market.Market
	Stats     *market.EcoStats
	Map       *roadgraph.Map
	Transport *spatial.TransportGrid
	Power     *power.Solver
	Hub       *subscribe.Hub
	Log       *slog.Logger
}

// NewResources returns a freshly initialized Resources bag. hub and log may
// be nil; log defaults to slog.Default(), and a nil hub is kept, in which
// case the world publishes no updates.
func NewResources(log *slog.Logger, hub *subscribe.Hub, startingBudget econ.Money) *Resources {
	if log == nil {
		log = slog.Default()
	}
	items := econ.NewItemRegistry()
	// job-opening is a distinguished internal item (spec.md §4.I step 3),
	// not a prototype-defined good, so it is seeded here rather than left
	// to the external prototype registry this package never parses (§1).
	items.Register(econ.JobOpeningItemName, "Job opening", 0, 0, true)
	return &Resources{
		Clock:     &sim.Clock{},
		Commands:  sim.NewCommandLog(),
		Gov:       econ.NewGovernment(startingBudget),
		Items:     items,
		Market:    market.New(),
		Stats:     market.NewEcoStats(),
		Map:       roadgraph.NewMap(log),
		Transport: spatial.NewTransportGrid(32, log),
		Power:     power.NewSolver(),
		Hub:       hub,
		Log:       log,
	}
}
