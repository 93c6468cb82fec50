package souls

import (
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/econ/market"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
)

// buyFoodState is the BuyFood desire's internal state machine (spec.md
// §4.H), grounded on the original's BuyFoodState enum.
type buyFoodState uint8

const (
	foodEmpty buyFoodState = iota
	foodWaitingForTrade
	foodBoughtAt
)

// DayLength is the tick count of one in-sim day, used to scale the BuyFood
// score: -1 right after eating, rising by 1 for every day without food.
const DayLength = sim.Tick(24 * 60 * 60 * 50) // 50 ticks/sec * seconds/day

// BuyFood is the desire that sends a human to buy and eat bread once per
// day, scoring higher the longer since LastAte.
type BuyFood struct {
	Bread   econ.ItemID
	LastAte sim.Tick

	state      buyFoodState
	boughtAt   roadgraph.BuildingID
	market     *market.Market
	self       econ.SoulID
	pos        func() geom.Vec3
	loc        func() (roadgraph.BuildingID, bool)
	clock      *sim.Clock
}

// NewBuyFood returns a BuyFood desire for self, sourcing bread from m.
func NewBuyFood(self econ.SoulID, bread econ.ItemID, m *market.Market, clock *sim.Clock, pos func() geom.Vec3, loc func() (roadgraph.BuildingID, bool)) *BuyFood {
	return &BuyFood{Bread: bread, market: m, self: self, pos: pos, loc: loc, clock: clock}
}

// Score implements Desire.
func (b *BuyFood) Score() float64 {
	if b.state == foodWaitingForTrade {
		return 0.0
	}
	if b.state == foodBoughtAt {
		if id, ok := b.loc(); ok && id == b.boughtAt {
			return 1.0
		}
	}
	elapsed := b.clock.GetTick() - b.LastAte
	return float64(elapsed)/float64(DayLength) - 1.0
}

// Apply implements Desire.
func (b *BuyFood) Apply() HumanDecisionKind {
	switch b.state {
	case foodEmpty:
		b.market.Buy(b.self, b.pos(), b.Bread, 1)
		b.state = foodWaitingForTrade
		return Yield
	case foodWaitingForTrade:
		return Yield
	case foodBoughtAt:
		if id, ok := b.loc(); ok && id == b.boughtAt {
			b.state = foodEmpty
			b.LastAte = b.clock.GetTick()
			return Yield
		}
		return GoTo(b.boughtAt)
	default:
		return None
	}
}

// NotifyBought moves a waiting bread order to BoughtAt at sellerBuilding.
// No code in this module calls it (world.creditTrades does not), so a
// BuyFood that has posted its order stays in the waiting state.
func (b *BuyFood) NotifyBought(sellerBuilding roadgraph.BuildingID) {
	if b.state == foodWaitingForTrade {
		b.state = foodBoughtAt
		b.boughtAt = sellerBuilding
	}
}
