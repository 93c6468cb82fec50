// Package pathfind implements A* search over the road graph's lane graph,
// in the two variants named in spec.md §4.D: a directional variant for
// vehicles (nodes are lanes) and a pedestrian variant (nodes are
// Traversables, which may be walked backwards).
package pathfind

import (
	"container/heap"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
)

// HeuristicFactor tunes the admissible heuristic to prefer slight
// over-exploration over exactness (spec.md §4.D).
const HeuristicFactor = 1.2

// Direction is the direction of travel along a Traversable (GLOSSARY).
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Traversable is a lane or turn segment paired with a direction of travel,
// the unit of path steps (GLOSSARY).
type Traversable struct {
	Lane      roadgraph.LaneID
	IsLane    bool
	Turn      roadgraph.TurnID
	Direction Direction
}

// Points returns the polyline of the traversable, reversed if Direction is
// Backward (spec.md §3 Itinerary invariant).
func Points(m *roadgraph.Map, t Traversable) geom.Polyline3 {
	var pts geom.Polyline3
	if t.IsLane {
		if l, ok := m.Lane(t.Lane); ok {
			pts = l.Points
		}
	} else if tn, ok := m.Turn(t.Turn); ok {
		pts = tn.Points
	}
	if t.Direction == Backward {
		return pts.Reversed()
	}
	return pts
}

type pqItem struct {
	node     int64
	priority float64
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	// Deterministic tiebreak on node id (spec.md §4.D).
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// genericAStar runs A* over a graph described purely by its callbacks, node
// ids being opaque int64s so both the lane-graph and traversable-graph
// variants can share one search routine.
func genericAStar(start, goal int64, neighbors func(int64) []edge, heuristic func(int64) float64) ([]int64, bool) {
	if start == goal {
		return []int64{start}, true
	}
	gScore := map[int64]float64{start: 0}
	cameFrom := map[int64]int64{}
	visited := map[int64]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: start, priority: heuristic(start)})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem).node
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == goal {
			return reconstruct(cameFrom, start, goal), true
		}
		for _, e := range neighbors(cur) {
			tentative := gScore[cur] + e.cost
			if g, ok := gScore[e.to]; !ok || tentative < g {
				gScore[e.to] = tentative
				cameFrom[e.to] = cur
				heap.Push(pq, &pqItem{node: e.to, priority: tentative + heuristic(e.to)})
			}
		}
	}
	return nil, false
}

type edge struct {
	to   int64
	cost float64
}

func reconstruct(cameFrom map[int64]int64, start, goal int64) []int64 {
	path := []int64{goal}
	cur := goal
	for cur != start {
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func laneNodeID(id roadgraph.LaneID) int64 { return int64(id.Index)<<32 | int64(id.Gen) }
func laneIDFromNode(n int64) roadgraph.LaneID {
	return roadgraph.LaneID{Index: uint32(n >> 32), Gen: uint32(n)}
}
