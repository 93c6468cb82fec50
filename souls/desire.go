package souls

import "math"

// Desire is one scored behavior competing for control of a human each tick
// (spec.md §4.H). Score must be cheap: it runs for every desire every tick.
// Apply performs the desire's action and is only invoked for the winning
// desire.
type Desire interface {
	Score() float64
	Apply() HumanDecisionKind
}

// DesireSet holds a human's fixed desires and tracks which one won last
// tick, mirroring the original's score_and_apply/desires_system split: the
// previous tick's winner is applied, then every desire's score is
// refreshed and a new winner is marked for next tick.
type DesireSet struct {
	desires []Desire
	wasMax  []bool
}

// NewDesireSet returns a DesireSet over the given desires, evaluated in the
// given order; ties in score favor the earlier desire, matching the
// original's macro-generated priority order.
func NewDesireSet(desires ...Desire) *DesireSet {
	return &DesireSet{desires: desires, wasMax: make([]bool, len(desires))}
}

// Tick applies the previous winner (if any) and recomputes the new winner,
// returning the decision produced by the previous winner's Apply, or None
// the very first tick before any desire has been scored.
func (s *DesireSet) Tick() HumanDecisionKind {
	decision := None
	for i, d := range s.desires {
		if s.wasMax[i] {
			decision = d.Apply()
		}
	}

	maxScore := math.Inf(-1)
	maxIdx := -1
	scores := make([]float64, len(s.desires))
	for i, d := range s.desires {
		scores[i] = d.Score()
		if scores[i] > maxScore {
			maxScore, maxIdx = scores[i], i
		}
	}
	for i := range s.wasMax {
		s.wasMax[i] = i == maxIdx
	}
	return decision
}
