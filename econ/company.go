package econ

import (
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

// CompanyID identifies a goods company.
type CompanyID uint32

// JobOpeningItemName is the distinguished item a company sells and a
// jobless human buys; clearing such a trade adds the buyer to the seller
// company's Workers instead of moving stock (spec.md §4.I step 3).
const JobOpeningItemName = "job-opening"

// ProductionRecipe lists the items a company consumes and produces per
// production cycle, plus the labor and time it takes (spec.md §4.H).
type ProductionRecipe struct {
	Consumption     []ItemAmount
	Production      []ItemAmount
	WorkersNeeded   int
	MinWorkers      int
	ComplexityTicks int64 // ticks of work needed per production cycle
}

// ItemAmount is a quantity of a specific item.
type ItemAmount struct {
	Item ItemID
	Qty  int
}

// Company is a goods producer, consuming ProductionRecipe.Consumption and
// producing ProductionRecipe.Production, subject to its network's
// productivity ratio (package power) throttling output.
type Company struct {
	ID       CompanyID
	Soul     SoulID
	Pos      geom.Vec3
	Building roadgraph.BuildingID
	Recipe   ProductionRecipe
	Workers  []SoulID
	Progress float64 // [0,1) fraction through the current production cycle
	Bought   map[ItemID][]Trade
	Sold     []Trade
}

// NewCompany returns an idle company housed in building, at pos, producing
// per recipe.
func NewCompany(id CompanyID, building roadgraph.BuildingID, pos geom.Vec3, recipe ProductionRecipe) *Company {
	// The soul is derived from id, so companies with distinct ids are
	// distinct market participants, identically on every replica.
	return &Company{
		ID:       id,
		Soul:     SoulID{Kind: SoulCompany, ID: [16]byte{12: byte(id >> 24), 13: byte(id >> 16), 14: byte(id >> 8), 15: byte(id)}},
		Pos:      pos,
		Building: building,
		Recipe:   recipe,
		Bought:   make(map[ItemID][]Trade),
	}
}

// Tick advances production by one tick given electricityProductivity in
// [0,1] (the network's produced/consumed ratio, package power). The
// effective rate is electricityProductivity scaled by workers present over
// WorkersNeeded (spec.md §4.H). Production only proceeds with enough
// workers present and enough input stock bought.
func (c *Company) Tick(electricityProductivity float64) (produced []ItemAmount, consumed bool) {
	if len(c.Workers) < c.Recipe.MinWorkers || c.Recipe.ComplexityTicks <= 0 {
		return nil, false
	}
	if c.Progress == 0 {
		for _, need := range c.Recipe.Consumption {
			if !c.hasStock(need) {
				return nil, false
			}
		}
		for _, need := range c.Recipe.Consumption {
			c.consumeStock(need)
		}
		consumed = true
	}
	workerRatio := 1.0
	if c.Recipe.WorkersNeeded > 0 {
		workerRatio = float64(len(c.Workers)) / float64(c.Recipe.WorkersNeeded)
		if workerRatio > 1 {
			workerRatio = 1
		}
	}
	productivity := electricityProductivity * workerRatio
	step := productivity / float64(c.Recipe.ComplexityTicks)
	c.Progress += step
	if c.Progress >= 1.0 {
		c.Progress = 0
		produced = c.Recipe.Production
	}
	return produced, consumed
}

// OpenPositions returns how many more workers c needs to reach
// WorkersNeeded, used each tick to post job-opening sell orders.
func (c *Company) OpenPositions() int {
	open := c.Recipe.WorkersNeeded - len(c.Workers)
	if open < 0 {
		return 0
	}
	return open
}

func (c *Company) hasStock(need ItemAmount) bool {
	have := 0
	for _, t := range c.Bought[need.Item] {
		have += t.Qty
	}
	return have >= need.Qty
}

func (c *Company) consumeStock(need ItemAmount) {
	remaining := need.Qty
	trades := c.Bought[need.Item]
	for remaining > 0 && len(trades) > 0 {
		if trades[0].Qty <= remaining {
			remaining -= trades[0].Qty
			trades = trades[1:]
			continue
		}
		trades[0].Qty -= remaining
		remaining = 0
	}
	c.Bought[need.Item] = trades
}
