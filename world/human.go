package world

import (
	"github.com/citysim/simcore/agent"
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/itinerary"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/souls"
)

// Human bundles one resident's soul identity, physical body, desire set,
// and itinerary router -- the four pieces spec.md §4.G/H split across
// package boundaries that a single simulated person needs every tick.
type Human struct {
	Soul      econ.SoulID
	Body      *agent.Body
	Desires   *souls.DesireSet
	Router    *itinerary.Router
	Residence roadgraph.BuildingID
	Workplace roadgraph.BuildingID

	targetBuilding    roadgraph.BuildingID
	hasTargetBuilding bool
}

// currentPos returns the body's current world position regardless of Kind.
func (h *Human) currentPos() geom.Vec3 {
	switch h.Body.Kind {
	case agent.KindVehicle:
		return h.Body.Vehicle.Pos
	case agent.KindBird:
		return h.Body.Bird.Pos
	default:
		return h.Body.Pedestrian.Pos
	}
}

// currentBuilding reports the building this human is standing at the door
// of, if the last GoTo targeted one and the body has arrived; used by
// desires like BuyFood to detect arrival (spec.md §4.H).
func (h *Human) currentBuilding(m *roadgraph.Map) (roadgraph.BuildingID, bool) {
	if !h.hasTargetBuilding {
		return roadgraph.BuildingID{}, false
	}
	b, ok := m.Building(h.targetBuilding)
	if !ok {
		return roadgraph.BuildingID{}, false
	}
	if h.currentPos().Sub(b.DoorPos).Len() > geom.Epsilon {
		return roadgraph.BuildingID{}, false
	}
	return h.targetBuilding, true
}

// dispatch turns the winning desire's decision into router/body state,
// recursing through DecisionMultiStack in order (spec.md §4.H).
func dispatch(h *Human, m *roadgraph.Map, decision souls.HumanDecisionKind) {
	switch decision.Kind {
	case souls.DecisionNone, souls.DecisionYield:
		return
	case souls.DecisionGoTo:
		dest := destinationPos(m, decision)
		if decision.Dest.HasBuilding {
			h.targetBuilding = decision.Dest.Building
			h.hasTargetBuilding = true
		} else {
			h.hasTargetBuilding = false
		}
		from := h.currentPos()
		h.Router.GoTo(m, from, dest)
		h.Body.Itin = h.Router.Itin
	case souls.DecisionMultiStack:
		for _, sub := range decision.Stack {
			dispatch(h, m, sub)
		}
	}
}

func destinationPos(m *roadgraph.Map, decision souls.HumanDecisionKind) geom.Vec3 {
	if decision.Dest.HasBuilding {
		if b, ok := m.Building(decision.Dest.Building); ok {
			return b.DoorPos
		}
	}
	return decision.Dest.Pos
}
