package itinerary

import (
	"errors"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/pathfind"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/spatial"
)

// VehicleID identifies a vehicle owned elsewhere (package agent); kept
// opaque here to avoid a dependency cycle between itinerary and agent.
type VehicleID int64

// BodyHandle identifies the human/pedestrian body driving this Router.
type BodyHandle int64

// Router drives an Itinerary towards a destination over subsequent ticks
// (spec.md §3, §4.E).
type Router struct {
	TargetDest  *geom.Vec3
	CurDest     *geom.Vec3
	Vehicle     *VehicleID
	PersonalCar *VehicleID
	Body        BodyHandle

	Itin       Itinerary
	Reserved   *SpotReservation
	lastFailed bool
}

// NewRouter returns a Router for the given body.
func NewRouter(body BodyHandle) *Router {
	return &Router{Body: body}
}

// GoTo attempts to make progress towards dest (spec.md §4.E):
//   - if already at dest, returns true immediately;
//   - if no path is computed yet, or dest changed since the last call, a
//     new path is computed (it may only reach a fallback destination, in
//     which case CurDest differs from TargetDest);
//   - the personal car is used when available and the path found is a
//     driving path; otherwise the router walks.
func (r *Router) GoTo(m *roadgraph.Map, from geom.Vec3, dest geom.Vec3) bool {
	if geom.NearlyEqual(from, dest) {
		return true
	}
	if r.TargetDest == nil || !geom.NearlyEqual(*r.TargetDest, dest) || r.lastFailed {
		r.TargetDest = &dest
		r.computeRoute(m, from, dest)
	}
	return false
}

func (r *Router) computeRoute(m *roadgraph.Map, from, dest geom.Vec3) {
	if r.PersonalCar != nil {
		if path, reached, ok := r.drivingPath(m, from, dest); ok {
			r.Vehicle = r.PersonalCar
			r.Itin = NewRoute(m, path)
			r.CurDest = &reached
			r.lastFailed = false
			return
		}
	}
	if path, reached, ok := r.walkingPath(m, from, dest); ok {
		r.Vehicle = nil
		r.Itin = NewRoute(m, path)
		r.CurDest = &reached
		r.lastFailed = false
		return
	}
	r.lastFailed = true
	r.Itin = Itinerary{Kind: None}
}

func (r *Router) drivingPath(m *roadgraph.Map, from, dest geom.Vec3) ([]pathfind.Traversable, geom.Vec3, bool) {
	startProj, ok := m.Project(from, 50, roadFilter())
	if !ok {
		return nil, geom.Vec3{}, false
	}
	goalProj, ok := m.Project(dest, 50, roadFilter())
	if !ok {
		return nil, geom.Vec3{}, false
	}
	startLane, ok := nearestLaneOfKind(m, startProj.Road, roadgraph.Driving)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	goalLane, ok := nearestLaneOfKind(m, goalProj.Road, roadgraph.Driving)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	path, ok := pathfind.VehiclePath(m, startLane, goalLane)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	return path, pathfind.Points(m, path[len(path)-1]).Last(), true
}

func (r *Router) walkingPath(m *roadgraph.Map, from, dest geom.Vec3) ([]pathfind.Traversable, geom.Vec3, bool) {
	startProj, ok := m.Project(from, 50, roadFilter())
	if !ok {
		return nil, geom.Vec3{}, false
	}
	goalProj, ok := m.Project(dest, 50, roadFilter())
	if !ok {
		return nil, geom.Vec3{}, false
	}
	startLane, ok := nearestLaneOfKind(m, startProj.Road, roadgraph.Walking)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	goalLane, ok := nearestLaneOfKind(m, goalProj.Road, roadgraph.Walking)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	start := pathfind.Traversable{Lane: startLane, IsLane: true, Direction: pathfind.Forward}
	goal := pathfind.Traversable{Lane: goalLane, IsLane: true, Direction: pathfind.Forward}
	path, ok := pathfind.PedestrianPath(m, start, goal)
	if !ok {
		return nil, geom.Vec3{}, false
	}
	return path, pathfind.Points(m, path[len(path)-1]).Last(), true
}

func nearestLaneOfKind(m *roadgraph.Map, road roadgraph.RoadID, kind roadgraph.LaneKind) (roadgraph.LaneID, bool) {
	r, ok := m.Road(road)
	if !ok {
		return roadgraph.LaneID{}, false
	}
	for _, lid := range append(append([]roadgraph.LaneID{}, r.LanesForward...), r.LanesBackward...) {
		if l, ok := m.Lane(lid); ok && l.Kind == kind {
			return lid, true
		}
	}
	return roadgraph.LaneID{}, false
}

// ErrGoToFailed is returned by callers that need to distinguish "no path
// found" from "arrived"; Router.GoTo itself never returns an error (spec.md
// §4.E says the call always attempts and may only reach a fallback dest).
var ErrGoToFailed = errors.New("itinerary: no path found")

func roadFilter() spatial.Filter { return spatial.Filter(spatial.KindRoad) }
