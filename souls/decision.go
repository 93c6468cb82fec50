// Package souls implements the human desire-scoring and dispatch loop
// (spec.md §4.H): each human holds a fixed set of Desires (buy food, go
// home, go to work); every tick the highest-scoring desire's Apply is
// invoked and its result drives the itinerary Router.
package souls

import (
	"github.com/citysim/simcore/roadgraph"
)

// DecisionKind enumerates what a Desire's Apply asked the human to do.
type DecisionKind uint8

const (
	// DecisionNone means the desire has nothing for the human to do right
	// now (distinct from Yield: no desire was even scored as max).
	DecisionNone DecisionKind = iota
	// DecisionYield means the desire acted (e.g. posted a market order)
	// but does not want the body to move anywhere this tick.
	DecisionYield
	// DecisionGoTo asks the router to route the body towards Dest.
	DecisionGoTo
	// DecisionMultiStack carries an ordered list of sub-decisions to apply
	// in sequence (mirrors the original's MultiStack decision kind, used
	// when a desire both yields and then immediately wants to move).
	DecisionMultiStack
)

// Destination is a desire's requested target: either a building door or a
// bare point.
type Destination struct {
	Building    roadgraph.BuildingID
	HasBuilding bool
	Pos         [3]float64
}

// HumanDecisionKind is the result of applying a human's winning desire this
// tick.
type HumanDecisionKind struct {
	Kind  DecisionKind
	Dest  Destination
	Stack []HumanDecisionKind
}

// None is the zero decision: do nothing.
var None = HumanDecisionKind{Kind: DecisionNone}

// Yield is a decision that acts without moving.
var Yield = HumanDecisionKind{Kind: DecisionYield}

// GoTo builds a DecisionGoTo targeting a building door.
func GoTo(b roadgraph.BuildingID) HumanDecisionKind {
	return HumanDecisionKind{Kind: DecisionGoTo, Dest: Destination{Building: b, HasBuilding: true}}
}

// MultiStack builds a DecisionMultiStack applying each decision in order.
func MultiStack(decisions ...HumanDecisionKind) HumanDecisionKind {
	return HumanDecisionKind{Kind: DecisionMultiStack, Stack: decisions}
}
