package souls

import (
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
)

// Home is the desire that sends a human back to its residence outside work
// and meal hours; it scores just below Work so work wins ties during the
// day and Home wins once work hours end.
type Home struct {
	Residence roadgraph.BuildingID
	WorkHours WorkHours
	clock     *sim.Clock
}

// NewHome returns a Home desire for the given residence.
func NewHome(residence roadgraph.BuildingID, hours WorkHours, clock *sim.Clock) *Home {
	return &Home{Residence: residence, WorkHours: hours, clock: clock}
}

// Score implements Desire.
func (h *Home) Score() float64 {
	dayTick := h.clock.GetTick() % sim.Tick(24*60*60*50)
	within := dayTick >= h.WorkHours.StartOfDay && dayTick < h.WorkHours.EndOfDay
	if within {
		return 0.1
	}
	return 0.4
}

// Apply implements Desire.
func (h *Home) Apply() HumanDecisionKind {
	return GoTo(h.Residence)
}
