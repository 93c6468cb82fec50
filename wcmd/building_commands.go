package wcmd

import (
	"math"

	"github.com/citysim/simcore/econ"
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

// unitHeading normalizes a facing vector to a (cos, sin) unit pair, falling
// back to the +X axis for a zero-length facing.
func unitHeading(facing geom.Vec3) geom.Vec2 {
	v := geom.Vec2{facing.X(), facing.Y()}
	l := math.Hypot(v.X(), v.Y())
	if l < geom.Epsilon {
		return geom.Vec2{1, 0}
	}
	return geom.Vec2{v.X() / l, v.Y() / l}
}

// ZonePricePerArea is the per-square-meter surcharge added to a building's
// prototype price for its zone footprint (spec.md §4.N).
const ZonePricePerArea = econ.Money(1)

// MapBuildHouse builds a plain house at pos, oriented by facing, with a
// door at doorPos.
type MapBuildHouse struct {
	Pos, Facing, DoorPos geom.Vec3
	Width, Height        float64
	PrototypePrice       econ.Money
}

func (c MapBuildHouse) Tag() string      { return "MapBuildHouse" }
func (c MapBuildHouse) Cost() econ.Money { return c.PrototypePrice }

func (c MapBuildHouse) Apply(m *roadgraph.Map) error {
	obb := geom.NewOBB(geom.Vec2{c.Pos.X(), c.Pos.Y()}, unitHeading(c.Facing), c.Width/2, c.Height/2)
	_, err := m.AddBuilding(roadgraph.Building{
		Kind:    roadgraph.BuildingKind(1),
		OBB:     obb,
		DoorPos: c.DoorPos,
		Height:  c.Height,
	})
	return err
}

// MapBuildSpecialBuilding builds a non-residential building (a company,
// station, etc.) optionally attached to a zone. ConnectedRoad is carried
// with the command but Apply does not use it.
type MapBuildSpecialBuilding struct {
	Pos, Facing, DoorPos geom.Vec3
	Width, Height        float64
	Kind                 roadgraph.BuildingKind
	Zone                 *roadgraph.Zone
	ConnectedRoad        roadgraph.RoadID
	PrototypePrice       econ.Money
}

func (c MapBuildSpecialBuilding) Tag() string { return "MapBuildSpecialBuilding" }

func (c MapBuildSpecialBuilding) Cost() econ.Money {
	cost := c.PrototypePrice
	if c.Zone != nil {
		cost += econ.Money(c.Zone.Area) * ZonePricePerArea
	}
	return cost
}

func (c MapBuildSpecialBuilding) Apply(m *roadgraph.Map) error {
	obb := geom.NewOBB(geom.Vec2{c.Pos.X(), c.Pos.Y()}, unitHeading(c.Facing), c.Width/2, c.Height/2)
	_, err := m.AddBuilding(roadgraph.Building{
		Kind:    c.Kind,
		OBB:     obb,
		DoorPos: c.DoorPos,
		Height:  c.Height,
		Zone:    c.Zone,
	})
	return err
}

// UpdateZone replaces a building's zone polygon wholesale (e.g. from an
// editor drag), re-deriving its Area.
type UpdateZone struct {
	Building roadgraph.BuildingID
	Polygon  []geom.Vec2
	FillDir  geom.Vec2
}

func (c UpdateZone) Tag() string      { return "UpdateZone" }
func (c UpdateZone) Cost() econ.Money { return 0 }

func (c UpdateZone) Apply(m *roadgraph.Map) error {
	b, ok := m.Building(c.Building)
	if !ok {
		return roadgraph.ErrUnknownHandle
	}
	b.Zone = &roadgraph.Zone{Polygon: c.Polygon, Area: polygonArea(c.Polygon), FillDir: c.FillDir}
	return nil
}

// MoveZonePoint moves a single vertex of a building's zone polygon.
type MoveZonePoint struct {
	Building roadgraph.BuildingID
	Index    int
	NewPos   geom.Vec2
}

func (c MoveZonePoint) Tag() string      { return "MoveZonePoint" }
func (c MoveZonePoint) Cost() econ.Money { return 0 }

func (c MoveZonePoint) Apply(m *roadgraph.Map) error {
	b, ok := m.Building(c.Building)
	if !ok || b.Zone == nil || c.Index < 0 || c.Index >= len(b.Zone.Polygon) {
		return roadgraph.ErrUnknownHandle
	}
	b.Zone.Polygon[c.Index] = c.NewPos
	b.Zone.Area = polygonArea(b.Zone.Polygon)
	return nil
}

// polygonArea computes the absolute area of a simple polygon via the
// shoelace formula.
func polygonArea(poly []geom.Vec2) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X()*poly[j].Y() - poly[j].X()*poly[i].Y()
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
