package roadgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/spatial"
)

// Map owns every table in the road graph. It is the sole path through which
// intersections, roads, lanes, turns, parking spots, lots and buildings may
// be created, mutated or destroyed (spec.md §9 "Cyclic topology" design
// note: Map owns both tables, intersections/roads only reference each
// other by id).
type Map struct {
	log *slog.Logger

	inters    *slotMap[Intersection]
	roads     *slotMap[Road]
	lanes     *slotMap[Lane]
	turns     *slotMap[Turn]
	spots     *slotMap[ParkingSpot]
	lots      *slotMap[Lot]
	buildings *slotMap[Building]

	shapes *spatial.ShapeGrid
}

// NewMap returns an empty road graph.
func NewMap(log *slog.Logger) *Map {
	if log == nil {
		log = slog.Default()
	}
	return &Map{
		log:       log,
		inters:    newSlotMap[Intersection](),
		roads:     newSlotMap[Road](),
		lanes:     newSlotMap[Lane](),
		turns:     newSlotMap[Turn](),
		spots:     newSlotMap[ParkingSpot](),
		lots:      newSlotMap[Lot](),
		buildings: newSlotMap[Building](),
		shapes:    spatial.NewShapeGrid(log),
	}
}

var (
	// ErrUnknownHandle is returned for operations addressed at a stale or
	// never-existed id (spec.md §7 "Topology inconsistency").
	ErrUnknownHandle = errors.New("roadgraph: unknown handle")
	// ErrZeroLanes is returned by Connect when pattern describes no lanes
	// at all (spec.md §8 boundary behavior).
	ErrZeroLanes = errors.New("roadgraph: road must have at least one lane")
)

const intersectionRadius = 6.0

// AddIntersection creates a new, road-less intersection at pos.
func (m *Map) AddIntersection(pos geom.Vec3) IntersectionID {
	idx, gen := m.inters.insert(Intersection{
		Pos:   pos,
		Roads: make(map[RoadID]struct{}),
	})
	id := IntersectionID{Index: idx, Gen: gen}
	inter, _ := m.inters.get(idx, gen)
	inter.ID = id
	m.shapes.Insert(interHandle(id), geom.NewAABB(
		geom.Vec2{pos.X() - intersectionRadius, pos.Y() - intersectionRadius},
		geom.Vec2{pos.X() + intersectionRadius, pos.Y() + intersectionRadius},
	))
	return id
}

func interHandle(id IntersectionID) spatial.Handle {
	return spatial.Handle{Kind: spatial.KindIntersection, ID: int64(id.Index)<<32 | int64(id.Gen)}
}
func roadHandle(id RoadID) spatial.Handle {
	return spatial.Handle{Kind: spatial.KindRoad, ID: int64(id.Index)<<32 | int64(id.Gen)}
}
func buildingHandle(id BuildingID) spatial.Handle {
	return spatial.Handle{Kind: spatial.KindBuilding, ID: int64(id.Index)<<32 | int64(id.Gen)}
}
func lotHandle(id LotID) spatial.Handle {
	return spatial.Handle{Kind: spatial.KindLot, ID: int64(id.Index)<<32 | int64(id.Gen)}
}

// Intersection returns the live intersection for id.
func (m *Map) Intersection(id IntersectionID) (*Intersection, bool) {
	return m.inters.get(id.Index, id.Gen)
}

// Road returns the live road for id.
func (m *Map) Road(id RoadID) (*Road, bool) { return m.roads.get(id.Index, id.Gen) }

// Lane returns the live lane for id.
func (m *Map) Lane(id LaneID) (*Lane, bool) { return m.lanes.get(id.Index, id.Gen) }

// Turn returns the live turn for id.
func (m *Map) Turn(id TurnID) (*Turn, bool) { return m.turns.get(id.Index, id.Gen) }

// Building returns the live building for id.
func (m *Map) Building(id BuildingID) (*Building, bool) { return m.buildings.get(id.Index, id.Gen) }

// Connect creates a road between two existing intersections following a
// straight centerline, generates its lanes per pattern, regenerates turns
// at both endpoints and creates lots along the new road (spec.md §4.C).
func (m *Map) Connect(from, to IntersectionID, pattern LanePattern) (RoadID, error) {
	a, ok := m.inters.get(from.Index, from.Gen)
	if !ok {
		return RoadID{}, fmt.Errorf("connect: src: %w", ErrUnknownHandle)
	}
	b, ok := m.inters.get(to.Index, to.Gen)
	if !ok {
		return RoadID{}, fmt.Errorf("connect: dst: %w", ErrUnknownHandle)
	}
	return m.connectPoints(from, a.Pos, to, b.Pos, pattern)
}

// ConnectCurved is like Connect but with an explicit centerline; mid must
// not include the endpoints (spec.md §3 Road.points invariant: first/last
// equal the intersections' positions within geom.Epsilon).
func (m *Map) ConnectCurved(from IntersectionID, mid geom.Polyline3, to IntersectionID, pattern LanePattern) (RoadID, error) {
	a, ok := m.inters.get(from.Index, from.Gen)
	if !ok {
		return RoadID{}, fmt.Errorf("connect: src: %w", ErrUnknownHandle)
	}
	b, ok := m.inters.get(to.Index, to.Gen)
	if !ok {
		return RoadID{}, fmt.Errorf("connect: dst: %w", ErrUnknownHandle)
	}
	points := append(geom.Polyline3{a.Pos}, mid...)
	points = append(points, b.Pos)
	return m.connect(from, to, points, pattern)
}

func (m *Map) connectPoints(from IntersectionID, posA geom.Vec3, to IntersectionID, posB geom.Vec3, pattern LanePattern) (RoadID, error) {
	return m.connect(from, to, geom.Polyline3{posA, posB}, pattern)
}

func (m *Map) connect(from, to IntersectionID, points geom.Polyline3, pattern LanePattern) (RoadID, error) {
	if pattern.NLanes() == 0 {
		return RoadID{}, ErrZeroLanes
	}
	idx, gen := m.roads.insert(Road{Src: from, Dst: to, Points: points, Width: pattern.Width})
	id := RoadID{Index: idx, Gen: gen}
	road, _ := m.roads.get(idx, gen)
	road.ID = id

	road.LanesForward = m.makeLanes(id, points, pattern.LanesForward, pattern.Width, false)
	road.LanesBackward = m.makeLanes(id, points.Reversed(), pattern.LanesBackward, pattern.Width, true)

	a, _ := m.inters.get(from.Index, from.Gen)
	b, _ := m.inters.get(to.Index, to.Gen)
	a.Roads[id] = struct{}{}
	b.Roads[id] = struct{}{}

	m.shapes.Insert(roadHandle(id), roadBBox(road))
	m.regenerateParking(id)
	m.regenerateTurns(from)
	m.regenerateTurns(to)
	m.regenerateLots(id)
	return id, nil
}

func roadBBox(r *Road) geom.AABB {
	b := geom.NewAABB(geom.Vec2{r.Points[0].X(), r.Points[0].Y()}, geom.Vec2{r.Points[0].X(), r.Points[0].Y()})
	for _, p := range r.Points {
		b = b.Union(geom.NewAABB(geom.Vec2{p.X(), p.Y()}, geom.Vec2{p.X(), p.Y()}))
	}
	return b.Expand(r.Width/2 + 1)
}

// makeLanes creates one Lane per kind in kinds, offset laterally across the
// road width, in the direction described by points (already reversed by
// the caller for the backward set). dst is the intersection the lanes
// arrive at, i.e. the last point of points.
func (m *Map) makeLanes(road RoadID, points geom.Polyline3, kinds []LaneKind, width float64, backward bool) []LaneID {
	out := make([]LaneID, 0, len(kinds))
	n := len(kinds)
	if n == 0 {
		return out
	}
	r, _ := m.roads.get(road.Index, road.Gen)
	srcInter, dstInter := r.Src, r.Dst
	if backward {
		srcInter, dstInter = r.Dst, r.Src
	}
	for i, kind := range kinds {
		offset := laneOffset(i, n, width)
		laneLine := offsetPolyline(points, offset)
		idx, gen := m.lanes.insert(Lane{
			Parent: road,
			Kind:   kind,
			Points: laneLine,
			Src:    srcInter,
			Dst:    dstInter,
		})
		id := LaneID{Index: idx, Gen: gen}
		lane, _ := m.lanes.get(idx, gen)
		lane.ID = id
		out = append(out, id)
	}
	return out
}

func laneOffset(i, n int, width float64) float64 {
	laneWidth := width / float64(2*n)
	// Lanes are numbered outward from the centerline.
	return laneWidth * (float64(i)*2 + 1)
}

func offsetPolyline(points geom.Polyline3, offset float64) geom.Polyline3 {
	out := make(geom.Polyline3, len(points))
	for i, p := range points {
		var tangent geom.Vec3
		switch {
		case len(points) == 1:
			tangent = geom.Vec3{1, 0, 0}
		case i == 0:
			tangent = points[1].Sub(points[0])
		case i == len(points)-1:
			tangent = points[i].Sub(points[i-1])
		default:
			tangent = points[i+1].Sub(points[i-1])
		}
		tl := math.Hypot(tangent.X(), tangent.Y())
		var normal geom.Vec2
		if tl > 0 {
			normal = geom.Vec2{-tangent.Y() / tl, tangent.X() / tl}
		}
		out[i] = geom.Vec3{p.X() + normal.X()*offset, p.Y() + normal.Y()*offset, p.Z()}
	}
	return out
}

// RemoveRoad removes a road, its lanes, their parking spots and the lots
// generated along it (spec.md §4.C), then regenerates turns at both former
// endpoints. Lots whose parent is another road are left in place, even where
// they overlap this road or its intersections.
func (m *Map) RemoveRoad(id RoadID) error {
	r, ok := m.roads.get(id.Index, id.Gen)
	if !ok {
		m.log.Warn("roadgraph: remove_road on unknown handle", "road", id)
		return fmt.Errorf("remove_road: %w", ErrUnknownHandle)
	}
	src, dst := r.Src, r.Dst

	for _, l := range append(append([]LaneID{}, r.LanesForward...), r.LanesBackward...) {
		m.removeSpotsOnLane(l)
		m.lanes.remove(l.Index, l.Gen)
	}
	m.removeLotsForRoad(id)
	m.shapes.Remove(roadHandle(id))
	m.roads.remove(id.Index, id.Gen)

	if a, ok := m.inters.get(src.Index, src.Gen); ok {
		delete(a.Roads, id)
	}
	if b, ok := m.inters.get(dst.Index, dst.Gen); ok {
		delete(b.Roads, id)
	}
	m.regenerateTurns(src)
	m.regenerateTurns(dst)
	return nil
}

// RemoveIntersection removes every road referencing id, then the
// intersection itself (spec.md §4.C).
func (m *Map) RemoveIntersection(id IntersectionID) error {
	inter, ok := m.inters.get(id.Index, id.Gen)
	if !ok {
		m.log.Warn("roadgraph: remove_intersection on unknown handle", "intersection", id)
		return fmt.Errorf("remove_intersection: %w", ErrUnknownHandle)
	}
	roadIDs := make([]RoadID, 0, len(inter.Roads))
	for rid := range inter.Roads {
		roadIDs = append(roadIDs, rid)
	}
	for _, rid := range roadIDs {
		if err := m.RemoveRoad(rid); err != nil {
			return err
		}
	}
	m.shapes.Remove(interHandle(id))
	m.turns.each(func(idx, gen uint32, t *Turn) {
		if t.Inter == id {
			m.turns.remove(idx, gen)
		}
	})
	m.inters.remove(id.Index, id.Gen)
	return nil
}

// UpdateIntersectionPolicy changes turn/light policy and regenerates turns
// and traffic-control schedules accordingly (spec.md §4.C).
func (m *Map) UpdateIntersectionPolicy(id IntersectionID, turnPolicy TurnPolicy, lightPolicy LightPolicy) error {
	inter, ok := m.inters.get(id.Index, id.Gen)
	if !ok {
		return fmt.Errorf("update_intersection_policy: %w", ErrUnknownHandle)
	}
	inter.TurnPolicy = turnPolicy
	inter.LightPolicy = lightPolicy
	m.regenerateTurns(id)
	return nil
}

// Projection is the result of snapping a position to the nearest map
// feature (GLOSSARY).
type Projection struct {
	Kind     spatial.ProjectKind
	Inter    IntersectionID
	Road     RoadID
	Building BuildingID
	Lot      LotID
	Pos      geom.Vec3
}

// Project snaps pos to the nearest feature matching filter within
// tolerance, or reports ok=false if nothing qualifies (spec.md §4.C).
func (m *Map) Project(pos geom.Vec3, tolerance float64, filter spatial.Filter) (Projection, bool) {
	q := geom.NewAABB(
		geom.Vec2{pos.X() - tolerance, pos.Y() - tolerance},
		geom.Vec2{pos.X() + tolerance, pos.Y() + tolerance},
	)
	handles := m.shapes.Query(q, filter)
	bestDist := math.Inf(1)
	var best spatial.Handle
	found := false
	for _, h := range handles {
		shape, ok := m.shapes.Shape(h)
		if !ok {
			continue
		}
		d := distToAABB(shape, geom.Vec2{pos.X(), pos.Y()})
		if d <= tolerance && d < bestDist {
			bestDist, best, found = d, h, true
		}
	}
	if !found {
		return Projection{}, false
	}
	return m.resolveProjection(best, pos)
}

func distToAABB(b geom.AABB, p geom.Vec2) float64 {
	dx := math.Max(b.LL.X()-p.X(), math.Max(0, p.X()-b.UR.X()))
	dy := math.Max(b.LL.Y()-p.Y(), math.Max(0, p.Y()-b.UR.Y()))
	return math.Hypot(dx, dy)
}

func (m *Map) resolveProjection(h spatial.Handle, pos geom.Vec3) (Projection, bool) {
	index, gen := uint32(h.ID>>32), uint32(h.ID)
	switch h.Kind {
	case spatial.KindIntersection:
		if inter, ok := m.inters.get(index, gen); ok {
			return Projection{Kind: h.Kind, Inter: inter.ID, Pos: inter.Pos}, true
		}
	case spatial.KindRoad:
		if road, ok := m.roads.get(index, gen); ok {
			proj, _ := road.Points.Project(pos)
			return Projection{Kind: h.Kind, Road: road.ID, Pos: proj}, true
		}
	case spatial.KindBuilding:
		if b, ok := m.buildings.get(index, gen); ok {
			return Projection{Kind: h.Kind, Building: b.ID, Pos: b.DoorPos}, true
		}
	case spatial.KindLot:
		if l, ok := m.lots.get(index, gen); ok {
			return Projection{Kind: h.Kind, Lot: l.ID, Pos: pos}, true
		}
	}
	return Projection{}, false
}

// AddBuilding registers a building, rejecting it if its footprint overlaps
// an existing intersection/road/building; lots under the footprint do not
// reject it but are removed.
func (m *Map) AddBuilding(b Building) (BuildingID, error) {
	if b.Zone != nil && b.Zone.Area > MaxZoneArea {
		return BuildingID{}, fmt.Errorf("roadgraph: zone area %.1f exceeds MaxZoneArea %.1f", b.Zone.Area, MaxZoneArea)
	}
	if m.BuildingOverlaps(b.OBB) {
		return BuildingID{}, errors.New("roadgraph: building overlaps existing construction")
	}
	idx, gen := m.buildings.insert(b)
	id := BuildingID{Index: idx, Gen: gen}
	bld, _ := m.buildings.get(idx, gen)
	bld.ID = id
	m.shapes.Insert(buildingHandle(id), bld.OBB.BBox())
	m.removeLotsOverlapping(bld.OBB)
	return id, nil
}

// RemoveBuilding deregisters a building.
func (m *Map) RemoveBuilding(id BuildingID) error {
	if _, ok := m.buildings.get(id.Index, id.Gen); !ok {
		return fmt.Errorf("remove_building: %w", ErrUnknownHandle)
	}
	m.shapes.Remove(buildingHandle(id))
	m.buildings.remove(id.Index, id.Gen)
	return nil
}

// BuildingOverlaps reports whether obb overlaps any existing
// intersection/road/building footprint (spec.md §4.C).
func (m *Map) BuildingOverlaps(obb geom.OBB) bool {
	handles := m.shapes.Query(obb.BBox(), spatial.AllKinds)
	for _, h := range handles {
		switch h.Kind {
		case spatial.KindIntersection, spatial.KindRoad:
			return true
		case spatial.KindBuilding:
			index, gen := uint32(h.ID>>32), uint32(h.ID)
			if b, ok := m.buildings.get(index, gen); ok && b.OBB.Intersects(obb) {
				return true
			}
		}
	}
	return false
}

// Lanes returns every live lane, for callers (pathfinder, agent decisions)
// that need a full scan at startup/reload.
func (m *Map) Lanes(fn func(*Lane)) { m.lanes.each(func(_, _ uint32, l *Lane) { fn(l) }) }

// Intersections iterates every live intersection.
func (m *Map) Intersections(fn func(*Intersection)) {
	m.inters.each(func(_, _ uint32, i *Intersection) { fn(i) })
}

// Roads iterates every live road.
func (m *Map) Roads(fn func(*Road)) { m.roads.each(func(_, _ uint32, r *Road) { fn(r) }) }

// ParkingSpots iterates every live parking spot.
func (m *Map) ParkingSpots(fn func(*ParkingSpot)) {
	m.spots.each(func(_, _ uint32, s *ParkingSpot) { fn(s) })
}

// ParkingSpot returns the live spot for id.
func (m *Map) ParkingSpot(id ParkingSpotID) (*ParkingSpot, bool) { return m.spots.get(id.Index, id.Gen) }
