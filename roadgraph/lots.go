package roadgraph

import (
	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/spatial"
)

const (
	lotStride = 16.0
	lotDepth  = 12.0
	lotWidth  = 10.0
)

// regenerateLots places Lot entries at fixed stride along road id, offset
// to either side of the centerline, skipping any position that would
// overlap an existing building (spec.md §3: "Generated along roads;
// removed when the parent road is removed or when overlapping new
// construction").
func (m *Map) regenerateLots(id RoadID) {
	road, ok := m.roads.get(id.Index, id.Gen)
	if !ok {
		return
	}
	length := road.Length()
	n := int(length / lotStride)
	for i := 0; i < n; i++ {
		target := lotStride/2 + float64(i)*lotStride
		pos, normal := pointAlong(road.Points, target)
		for _, side := range []float64{1, -1} {
			center := geom.Vec3{
				pos.X() + normal.X()*side*(road.Width/2+lotDepth/2),
				pos.Y() + normal.Y()*side*(road.Width/2+lotDepth/2),
				pos.Z(),
			}
			obb := geom.NewOBB(geom.Vec2{center.X(), center.Y()}, normal, lotDepth/2, lotWidth/2)
			overlaps := false
			for _, h := range m.shapes.Query(obb.BBox(), spatial.Filter(spatial.KindBuilding)) {
				if b, ok := m.buildings.get(uint32(h.ID>>32), uint32(h.ID)); ok && b.OBB.Intersects(obb) {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			idx, gen := m.lots.insert(Lot{Parent: id, Kind: LotResidential, Shape: obb})
			lot, _ := m.lots.get(idx, gen)
			lot.ID = LotID{Index: idx, Gen: gen}
			m.shapes.Insert(lotHandle(lot.ID), obb.BBox())
		}
	}
}

func pointAlong(points geom.Polyline3, target float64) (geom.Vec3, geom.Vec2) {
	traveled := 0.0
	for i := 1; i < len(points); i++ {
		seg := points[i].Sub(points[i-1])
		segLen := seg.Len()
		if traveled+segLen >= target || i == len(points)-1 {
			t := 0.0
			if segLen > 0 {
				t = (target - traveled) / segLen
				if t < 0 {
					t = 0
				}
				if t > 1 {
					t = 1
				}
			}
			pos := points[i-1].Add(seg.Mul(t))
			var normal geom.Vec2
			if segLen > 0 {
				normal = geom.Vec2{-seg.Y() / segLen, seg.X() / segLen}
			}
			return pos, normal
		}
		traveled += segLen
	}
	return points.Last(), geom.Vec2{0, 1}
}

// removeLotsForRoad removes every Lot whose Parent is id.
func (m *Map) removeLotsForRoad(id RoadID) {
	m.lots.each(func(idx, gen uint32, l *Lot) {
		if l.Parent == id {
			m.shapes.Remove(lotHandle(l.ID))
			m.lots.remove(idx, gen)
		}
	})
}

// removeLotsOverlapping removes every Lot overlapping obb, used when a new
// Building is placed on top of a generated Lot.
func (m *Map) removeLotsOverlapping(obb geom.OBB) {
	m.lots.each(func(idx, gen uint32, l *Lot) {
		if l.Shape.Intersects(obb) {
			m.shapes.Remove(lotHandle(l.ID))
			m.lots.remove(idx, gen)
		}
	})
}
