// Package itinerary implements an agent's current route (spec.md §4.E): the
// Itinerary state machine that advances a local point buffer one
// traversable at a time, and the Router that drives it towards a
// destination, reserving parking as needed.
package itinerary

import (
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/pathfind"
	"github.com/citysim/simcore/roadgraph"
)

// Kind enumerates the Itinerary states named in spec.md §3.
type Kind uint8

const (
	None Kind = iota
	Simple
	Route
	WaitUntil
)

// Itinerary is an agent's current route expressed as a sequence of
// traversables plus a local path of points (GLOSSARY). Invariant: LocalPath
// is always a prefix of the current traversable's points, possibly
// reversed if direction is Backward (spec.md §3).
type Itinerary struct {
	Kind Kind

	// Simple
	SimpleTarget geom.Vec3

	// Route
	Path   []pathfind.Traversable
	Cursor int
	EndPos geom.Vec3

	// WaitUntil
	WaitTick uint64

	LocalPath geom.Polyline3
}

// NewSimple returns an Itinerary that walks straight towards target,
// ignoring the road graph (used for e.g. a pedestrian spawned mid-lane).
func NewSimple(from, target geom.Vec3) Itinerary {
	return Itinerary{Kind: Simple, SimpleTarget: target, LocalPath: geom.Polyline3{from, target}}
}

// NewRoute returns an Itinerary following path, loading the first
// traversable's points immediately.
func NewRoute(m *roadgraph.Map, path []pathfind.Traversable) Itinerary {
	it := Itinerary{Kind: Route, Path: path}
	if len(path) > 0 {
		it.EndPos = pathfind.Points(m, path[len(path)-1]).Last()
		it.LocalPath = pathfind.Points(m, path[0])
	}
	return it
}

// NewWaitUntil returns an Itinerary that simply blocks until tick t.
func NewWaitUntil(t uint64) Itinerary { return Itinerary{Kind: WaitUntil, WaitTick: t} }

// Done reports whether the itinerary has nothing left to do.
func (it *Itinerary) Done() bool {
	switch it.Kind {
	case None:
		return true
	case Simple:
		return len(it.LocalPath) == 0
	case Route:
		return it.Cursor >= len(it.Path) && len(it.LocalPath) == 0
	default:
		return false
	}
}

// LocalTarget returns the next point the agent should steer towards, or
// false if there is none.
func (it *Itinerary) LocalTarget() (geom.Vec3, bool) {
	if len(it.LocalPath) == 0 {
		return geom.Vec3{}, false
	}
	return it.LocalPath[0], true
}

// Advance pops the next point of LocalPath; when it empties and Kind is
// Route, it advances the cursor and loads the next traversable's points,
// reversing them if that traversable's direction is Backward (spec.md
// §4.E).
func (it *Itinerary) Advance(m *roadgraph.Map) {
	if len(it.LocalPath) > 0 {
		it.LocalPath = it.LocalPath[1:]
	}
	if len(it.LocalPath) > 0 || it.Kind != Route {
		return
	}
	for it.Cursor < len(it.Path)-1 {
		it.Cursor++
		pts := pathfind.Points(m, it.Path[it.Cursor])
		if len(pts) > 0 {
			it.LocalPath = pts
			return
		}
	}
	it.Cursor = len(it.Path)
}

// CheckValidity invalidates the itinerary (setting Kind to None) if any
// traversable it still needs has been removed from the road graph
// (spec.md §4.E).
func (it *Itinerary) CheckValidity(m *roadgraph.Map) bool {
	if it.Kind != Route {
		return true
	}
	for i := it.Cursor; i < len(it.Path); i++ {
		t := it.Path[i]
		if t.IsLane {
			if _, ok := m.Lane(t.Lane); !ok {
				it.Kind = None
				return false
			}
		} else if _, ok := m.Turn(t.Turn); !ok {
			it.Kind = None
			return false
		}
	}
	return true
}
