package spatial

import (
	"log/slog"
	"sort"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/citysim/simcore/geom"
)

// ProjectKind tags the category of a ShapeGrid entry, used both for
// Projection results (spec.md §4.C project()) and for ShapeGrid's filter
// bitmask.
type ProjectKind uint8

const (
	KindIntersection ProjectKind = 1 << iota
	KindRoad
	KindBuilding
	KindLot
	KindGround
)

// Filter is a bitmask of ProjectKind values accepted by a ShapeGrid query.
type Filter uint8

// AllKinds accepts every ProjectKind.
const AllKinds Filter = Filter(KindIntersection | KindRoad | KindBuilding | KindLot | KindGround)

// Accepts reports whether f includes k.
func (f Filter) Accepts(k ProjectKind) bool { return Filter(k)&f != 0 }

// Handle identifies a single ShapeGrid entry: a kind tag plus the owning
// package's own integer id (RoadID, IntersectionID, BuildingID, LotID).
// ShapeGrid never reuses an (kind, id) pair after it has been removed, per
// the handle-generation discipline described in spec.md §3.
type Handle struct {
	Kind ProjectKind
	ID   int64
}

const shapeGridCellSize = 64.0

// ShapeGrid maps entity handles to bounding shapes, one entry per live
// Intersection/Road/Building/Lot (spec.md §4.B, testable property 2
// "Spatial coverage").
type ShapeGrid struct {
	log *slog.Logger

	shapes  map[Handle]geom.AABB
	buckets map[uint64][]Handle
}

// NewShapeGrid returns an empty grid.
func NewShapeGrid(log *slog.Logger) *ShapeGrid {
	if log == nil {
		log = slog.Default()
	}
	return &ShapeGrid{
		log:     log,
		shapes:  make(map[Handle]geom.AABB),
		buckets: make(map[uint64][]Handle),
	}
}

func cellHash(cx, cy int64) uint64 {
	h := fnv1a.HashUint64(uint64(cx))
	return fnv1a.AddUint64(h, uint64(cy))
}

func (g *ShapeGrid) cellsFor(b geom.AABB) [][2]int64 {
	cxMin := int64(b.LL.X() / shapeGridCellSize)
	cxMax := int64(b.UR.X() / shapeGridCellSize)
	cyMin := int64(b.LL.Y() / shapeGridCellSize)
	cyMax := int64(b.UR.Y() / shapeGridCellSize)
	var cells [][2]int64
	for cx := cxMin; cx <= cxMax; cx++ {
		for cy := cyMin; cy <= cyMax; cy++ {
			cells = append(cells, [2]int64{cx, cy})
		}
	}
	return cells
}

// Insert registers h with bounding shape b. Invariant (spec.md §3,
// testable property 2): every live Intersection/Road/Building/Lot has
// exactly one entry, so callers must Remove before re-Insert on update.
func (g *ShapeGrid) Insert(h Handle, b geom.AABB) {
	g.shapes[h] = b
	for _, c := range g.cellsFor(b) {
		key := cellHash(c[0], c[1])
		g.buckets[key] = append(g.buckets[key], h)
	}
}

// Remove drops h from the grid. Removing an unknown handle logs a warning
// and is a no-op (spec.md §4.B).
func (g *ShapeGrid) Remove(h Handle) {
	b, ok := g.shapes[h]
	if !ok {
		g.log.Warn("spatial: shapegrid remove of unknown handle", "handle", h)
		return
	}
	for _, c := range g.cellsFor(b) {
		key := cellHash(c[0], c[1])
		bucket := g.buckets[key]
		for i := range bucket {
			if bucket[i] == h {
				copy(bucket[i:], bucket[i+1:])
				bucket = bucket[:len(bucket)-1]
				break
			}
		}
		if len(bucket) == 0 {
			delete(g.buckets, key)
		} else {
			g.buckets[key] = bucket
		}
	}
	delete(g.shapes, h)
}

// Update moves/resizes an existing entry; equivalent to Remove then Insert.
func (g *ShapeGrid) Update(h Handle, b geom.AABB) {
	if _, ok := g.shapes[h]; ok {
		g.Remove(h)
	}
	g.Insert(h, b)
}

// Query returns every handle matching filter whose bounding box intersects
// shape, ordered by ascending (Kind, ID) for determinism.
func (g *ShapeGrid) Query(shape geom.AABB, filter Filter) []Handle {
	seen := make(map[Handle]struct{})
	var out []Handle
	for _, c := range g.cellsFor(shape) {
		key := cellHash(c[0], c[1])
		for _, h := range g.buckets[key] {
			if _, dup := seen[h]; dup {
				continue
			}
			if !filter.Accepts(h.Kind) {
				continue
			}
			b, ok := g.shapes[h]
			if !ok || !b.Intersects(shape) {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of live entries.
func (g *ShapeGrid) Len() int { return len(g.shapes) }

// Shape returns the bounding box currently registered for h.
func (g *ShapeGrid) Shape(h Handle) (geom.AABB, bool) {
	b, ok := g.shapes[h]
	return b, ok
}
