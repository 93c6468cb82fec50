package souls

import (
	"github.com/citysim/simcore/itinerary"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
)

// WorkKind distinguishes a plain worker (who just needs to be at the
// workplace during hours) from a driver running delivery routes.
type WorkKind uint8

const (
	WorkerPlain WorkKind = iota
	WorkerDriver
)

// DriverState is the delivery-route state machine for WorkerDriver.
type DriverState uint8

const (
	DriverGoingToWork DriverState = iota
	DriverWaitingForDelivery
	DriverDelivering
	DriverDeliveryBack
)

// WorkHours is a daily [start,end) tick-of-day interval during which the
// Work desire scores positively.
type WorkHours struct {
	StartOfDay sim.Tick
	EndOfDay   sim.Tick
}

// Work is the desire that routes a human to its workplace during work
// hours, or, for drivers, cycles between the workplace and a delivery
// destination (spec.md §4.H, grounded on the original's desire_work).
type Work struct {
	Workplace  roadgraph.BuildingID
	Hours      WorkHours
	Kind       WorkKind
	State      DriverState
	DeliverTo  roadgraph.BuildingID
	OnMission  bool

	clock  *sim.Clock
	router *itinerary.Router
}

// NewWork returns a Work desire for a plain worker.
func NewWork(workplace roadgraph.BuildingID, hours WorkHours, clock *sim.Clock, router *itinerary.Router) *Work {
	return &Work{Workplace: workplace, Hours: hours, Kind: WorkerPlain, clock: clock, router: router}
}

// NewDriverWork returns a Work desire for a delivery driver.
func NewDriverWork(workplace roadgraph.BuildingID, hours WorkHours, clock *sim.Clock, router *itinerary.Router) *Work {
	return &Work{Workplace: workplace, Hours: hours, Kind: WorkerDriver, State: DriverGoingToWork, clock: clock, router: router}
}

func (w *Work) withinHours() bool {
	dayTick := w.clock.GetTick() % sim.Tick(24*60*60*50)
	if w.Hours.StartOfDay <= w.Hours.EndOfDay {
		return dayTick >= w.Hours.StartOfDay && dayTick < w.Hours.EndOfDay
	}
	return dayTick >= w.Hours.StartOfDay || dayTick < w.Hours.EndOfDay
}

// Score implements Desire.
func (w *Work) Score() float64 {
	if w.OnMission || w.withinHours() {
		return 0.5
	}
	return 0.0
}

// Apply implements Desire.
func (w *Work) Apply() HumanDecisionKind {
	if w.Kind == WorkerPlain {
		return GoTo(w.Workplace)
	}
	switch w.State {
	case DriverGoingToWork:
		if w.router != nil {
			w.State = DriverWaitingForDelivery
		}
		return GoTo(w.Workplace)
	case DriverWaitingForDelivery:
		return Yield
	case DriverDelivering:
		return GoTo(w.DeliverTo)
	case DriverDeliveryBack:
		return GoTo(w.Workplace)
	default:
		return None
	}
}

// AssignDelivery starts a delivery mission to dest; called externally when
// a GoodsCompany picks this driver for a route.
func (w *Work) AssignDelivery(dest roadgraph.BuildingID) {
	w.DeliverTo = dest
	w.State = DriverDelivering
	w.OnMission = true
}

// FinishDelivery marks the mission complete, sending the driver home to the
// workplace, matching the original's DeliveryBack transition.
func (w *Work) FinishDelivery() {
	w.State = DriverDeliveryBack
	w.OnMission = false
}
