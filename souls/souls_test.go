package souls

import (
	"testing"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/econ/market"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/sim"
)

func TestDesireSetAppliesPreviousMax(t *testing.T) {
	clock := &sim.Clock{}
	self := econ.NewSoulID(econ.SoulHuman)
	m := market.New()
	bread := econ.ItemID(1)

	bf := NewBuyFood(self, bread, m, clock, func() geom.Vec3 { return geom.Vec3{} }, func() (roadgraph.BuildingID, bool) { return roadgraph.BuildingID{}, false })
	work := NewWork(roadgraph.BuildingID{Index: 1}, WorkHours{StartOfDay: 0, EndOfDay: 10}, clock, nil)

	set := NewDesireSet(bf, work)

	// First tick: no previous winner, just establishes scores.
	d := set.Tick()
	if d.Kind != DecisionNone {
		t.Fatalf("expected None on first tick, got %v", d.Kind)
	}

	// Second tick: whichever desire scored highest last tick now applies.
	d2 := set.Tick()
	if d2.Kind == DecisionNone {
		t.Fatal("expected a decision from the winning desire on the second tick")
	}
}

func TestBuyFoodScoreRisesWithHunger(t *testing.T) {
	clock := &sim.Clock{}
	self := econ.NewSoulID(econ.SoulHuman)
	m := market.New()
	bf := NewBuyFood(self, econ.ItemID(1), m, clock, func() geom.Vec3 { return geom.Vec3{} }, func() (roadgraph.BuildingID, bool) { return roadgraph.BuildingID{}, false })

	s0 := bf.Score()
	clock.Reset(sim.Tick(DayLength))
	s1 := bf.Score()
	if s1 <= s0 {
		t.Fatalf("expected score to rise after a full day without eating: s0=%v s1=%v", s0, s1)
	}
}

func TestMarketMakeTradesMatchesBuyerAndSeller(t *testing.T) {
	m := market.New()
	buyer := econ.SoulID{Kind: econ.SoulHuman}
	seller := econ.SoulID{Kind: econ.SoulCompany}
	item := econ.ItemID(1)

	m.Buy(buyer, geom.Vec3{}, item, 3)
	m.Sell(seller, geom.Vec3{}, item, 5, econ.NewMoney(1))

	trades := m.MakeTrades(nil)
	if len(trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(trades))
	}
	if trades[0].Qty != 3 {
		t.Fatalf("expected buyer's full quantity of 3 to clear, got %d", trades[0].Qty)
	}
}

func TestMarketLeavesUnmatchedRemainderQueued(t *testing.T) {
	m := market.New()
	buyer := econ.SoulID{Kind: econ.SoulHuman}
	item := econ.ItemID(7)

	m.Buy(buyer, geom.Vec3{}, item, 4)
	trades := m.MakeTrades(nil)
	if len(trades) != 0 {
		t.Fatalf("expected no trades with no seller present, got %d", len(trades))
	}
}
