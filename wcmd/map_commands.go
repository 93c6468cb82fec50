package wcmd

import (
	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

const projectTolerance = 5.0

// MapMakeConnection builds a road between two positions, creating an
// intersection at either end if none already exists there (spec.md §6,
// §8 scenario 1).
type MapMakeConnection struct {
	From, To geom.Vec3
	Pattern  roadgraph.LanePattern
}

func (c MapMakeConnection) Tag() string { return "MapMakeConnection" }

func (c MapMakeConnection) Cost() econ.Money {
	length := c.To.Sub(c.From).Len()
	return ConnectionCost(length, len(c.Pattern.LanesForward))
}

func (c MapMakeConnection) Apply(m *roadgraph.Map) error {
	from := nearestOrNewIntersection(m, c.From, projectTolerance)
	to := nearestOrNewIntersection(m, c.To, projectTolerance)
	_, err := m.Connect(from, to, c.Pattern)
	return err
}

// MapMakeMultipleConnections builds a chain of roads through a polyline of
// waypoints, one connection per consecutive pair. Cost is the sum of each
// edge's own cost (spec.md §9 Open Question: source sums per edge).
type MapMakeMultipleConnections struct {
	Waypoints []geom.Vec3
	Pattern   roadgraph.LanePattern
}

func (c MapMakeMultipleConnections) Tag() string { return "MapMakeMultipleConnections" }

func (c MapMakeMultipleConnections) Cost() econ.Money {
	var total econ.Money
	for i := 1; i < len(c.Waypoints); i++ {
		length := c.Waypoints[i].Sub(c.Waypoints[i-1]).Len()
		total += ConnectionCost(length, len(c.Pattern.LanesForward))
	}
	return total
}

func (c MapMakeMultipleConnections) Apply(m *roadgraph.Map) error {
	for i := 1; i < len(c.Waypoints); i++ {
		from := nearestOrNewIntersection(m, c.Waypoints[i-1], projectTolerance)
		to := nearestOrNewIntersection(m, c.Waypoints[i], projectTolerance)
		if _, err := m.Connect(from, to, c.Pattern); err != nil {
			return err
		}
	}
	return nil
}

// MapRemoveRoad removes a road and everything generated from it.
type MapRemoveRoad struct {
	Road roadgraph.RoadID
}

func (c MapRemoveRoad) Tag() string        { return "MapRemoveRoad" }
func (c MapRemoveRoad) Cost() econ.Money   { return 0 }
func (c MapRemoveRoad) Apply(m *roadgraph.Map) error { return m.RemoveRoad(c.Road) }

// MapRemoveIntersection removes an intersection and every road touching it.
type MapRemoveIntersection struct {
	Intersection roadgraph.IntersectionID
}

func (c MapRemoveIntersection) Tag() string      { return "MapRemoveIntersection" }
func (c MapRemoveIntersection) Cost() econ.Money { return 0 }
func (c MapRemoveIntersection) Apply(m *roadgraph.Map) error {
	return m.RemoveIntersection(c.Intersection)
}

// MapUpdateIntersectionPolicy changes an intersection's turn/light policy,
// regenerating its turns.
type MapUpdateIntersectionPolicy struct {
	Intersection roadgraph.IntersectionID
	TurnPolicy   roadgraph.TurnPolicy
	LightPolicy  roadgraph.LightPolicy
}

func (c MapUpdateIntersectionPolicy) Tag() string      { return "MapUpdateIntersectionPolicy" }
func (c MapUpdateIntersectionPolicy) Cost() econ.Money { return 0 }
func (c MapUpdateIntersectionPolicy) Apply(m *roadgraph.Map) error {
	return m.UpdateIntersectionPolicy(c.Intersection, c.TurnPolicy, c.LightPolicy)
}
