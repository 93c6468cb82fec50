// Package spatial implements the two world indices named in spec.md §4.B:
// TransportGrid, a uniform bucketed grid over moving agents, and ShapeGrid,
// a handle→AABB map used for intersections/roads/buildings/lots (spec.md's
// SpatialMap). Both iterate in insertion order with stable tiebreaks so that
// two runs fed the same command sequence produce the same query results.
package spatial

import (
	"log/slog"
	"sort"

	"github.com/brentp/intintmap"

	"github.com/citysim/simcore/geom"
)

// DefaultCellSize is the TransportGrid bucket size in meters (spec.md §4.B).
const DefaultCellSize = 50.0

// AgentHandle identifies an entity tracked by a TransportGrid. It is a plain
// int64 so it can be used directly as an intintmap key.
type AgentHandle int64

// AgentState is the transform + kinematic summary written into the grid
// once per tick by transport_grid_synchronize (spec.md §4.F).
type AgentState struct {
	Pos    geom.Vec3
	Dir    geom.Vec3
	Speed  float64
	Radius float64
	Height float64
	Group  int32
	Flag   uint32
}

type agentEntry struct {
	handle AgentHandle
	state  AgentState
}

// TransportGrid is a uniform grid of moving agents supporting insert,
// position update, removal and radius/AABB queries (spec.md §4.B, §4.F).
type TransportGrid struct {
	cellSize float64
	log      *slog.Logger

	buckets map[int64][]agentEntry
	// cellOf maps an agent handle to the packed cell key it currently
	// occupies, so set_position/remove_maintain are O(bucket size)
	// instead of a full-grid scan.
	cellOf *intintmap.Map
	states map[AgentHandle]AgentState

	dirty bool
}

// NewTransportGrid returns an empty grid with the given cell size. A
// non-positive size falls back to DefaultCellSize.
func NewTransportGrid(cellSize float64, log *slog.Logger) *TransportGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &TransportGrid{
		cellSize: cellSize,
		log:      log,
		buckets:  make(map[int64][]agentEntry),
		cellOf:   intintmap.New(1024, 0.75),
		states:   make(map[AgentHandle]AgentState),
	}
}

func (g *TransportGrid) cellKey(pos geom.Vec3) int64 {
	cx := int64(pos.X() / g.cellSize)
	cy := int64(pos.Y() / g.cellSize)
	// Pack two signed 32-bit cell coordinates into one int64 key.
	return (cx << 32) ^ (cy & 0xFFFFFFFF)
}

// Insert adds a new agent to the grid at its initial state.
func (g *TransportGrid) Insert(h AgentHandle, s AgentState) {
	key := g.cellKey(s.Pos)
	g.buckets[key] = append(g.buckets[key], agentEntry{handle: h, state: s})
	g.cellOf.Put(int64(h), key)
	g.states[h] = s
	g.dirty = true
}

// SetPosition updates an agent's full state, moving it between buckets if
// its cell changed.
func (g *TransportGrid) SetPosition(h AgentHandle, s AgentState) {
	oldKey, ok := g.cellOf.Get(int64(h))
	if !ok {
		g.log.Warn("spatial: set_position on unknown handle", "handle", h)
		return
	}
	newKey := g.cellKey(s.Pos)
	if newKey != oldKey {
		g.removeFromBucket(oldKey, h)
		g.buckets[newKey] = append(g.buckets[newKey], agentEntry{handle: h, state: s})
		g.cellOf.Put(int64(h), newKey)
	} else {
		bucket := g.buckets[oldKey]
		for i := range bucket {
			if bucket[i].handle == h {
				bucket[i].state = s
				break
			}
		}
	}
	g.states[h] = s
	g.dirty = true
}

// RemoveMaintain removes an agent from the grid. Removing an unknown handle
// logs a warning and is a no-op (spec.md §4.B): the caller, not the grid, is
// the source of truth for which handles are alive.
func (g *TransportGrid) RemoveMaintain(h AgentHandle) {
	key, ok := g.cellOf.Get(int64(h))
	if !ok {
		g.log.Warn("spatial: remove_maintain on unknown handle", "handle", h)
		return
	}
	g.removeFromBucket(key, h)
	g.cellOf.Del(int64(h))
	delete(g.states, h)
	g.dirty = true
}

func (g *TransportGrid) removeFromBucket(key int64, h AgentHandle) {
	bucket := g.buckets[key]
	for i := range bucket {
		if bucket[i].handle == h {
			// Preserve the relative order of the remaining agents so
			// iteration stays a function of insertion history.
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

// QueryAround returns the handle of every agent within radius r of pos, ordered
// deterministically: by ascending cell key, then insertion order within a
// cell.
func (g *TransportGrid) QueryAround(pos geom.Vec3, r float64) []AgentHandle {
	return g.QueryAABB(
		geom.Vec2{pos.X() - r, pos.Y() - r},
		geom.Vec2{pos.X() + r, pos.Y() + r},
		func(s AgentState) bool { return s.Pos.Sub(pos).Len() <= r },
	)
}

// QueryAABB returns every agent whose cell overlaps [ll, ur] and for which
// accept (if non-nil) returns true, in deterministic order.
func (g *TransportGrid) QueryAABB(ll, ur geom.Vec2, accept func(AgentState) bool) []AgentHandle {
	cxMin := int64(ll.X() / g.cellSize)
	cxMax := int64(ur.X() / g.cellSize)
	cyMin := int64(ll.Y() / g.cellSize)
	cyMax := int64(ur.Y() / g.cellSize)

	var keys []int64
	for cx := cxMin; cx <= cxMax; cx++ {
		for cy := cyMin; cy <= cyMax; cy++ {
			keys = append(keys, (cx<<32)^(cy&0xFFFFFFFF))
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []AgentHandle
	for _, k := range keys {
		for _, e := range g.buckets[k] {
			if accept == nil || accept(e.state) {
				out = append(out, e.handle)
			}
		}
	}
	return out
}

// State returns the last known state of h.
func (g *TransportGrid) State(h AgentHandle) (AgentState, bool) {
	s, ok := g.states[h]
	return s, ok
}

// MaintainDeterministic is called at the end of each tick. It currently
// only clears the dirty flag: bucket contents are already maintained in
// insertion order on every mutation, so there is no batched reordering
// work to do, but the hook exists so future bucket-compaction strategies
// have a single well-defined call site (spec.md §4.F).
func (g *TransportGrid) MaintainDeterministic() {
	g.dirty = false
}

// Dirty reports whether the grid has been mutated since the last
// MaintainDeterministic call.
func (g *TransportGrid) Dirty() bool { return g.dirty }

// Len returns the number of tracked agents.
func (g *TransportGrid) Len() int { return len(g.states) }
