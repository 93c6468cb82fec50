package pathfind

import (
	"container/heap"

	"github.com/citysim/simcore/roadgraph"
)

// CrossingCost is the near-zero cost assigned to a crossing turn so the
// pedestrian search barely penalizes crossing the street when it shortens
// the route (spec.md §4.D).
const CrossingCost = 0.001

// PedestrianPath finds a walking path from start to goal using the
// pedestrian A* variant: nodes are Traversables, successors are both the
// continuation of the current lane/turn and every crossing turn, and
// walkers may traverse lanes backwards (spec.md §4.D).
func PedestrianPath(m *roadgraph.Map, start, goal Traversable) ([]Traversable, bool) {
	goalPos := Points(m, goal).Last()

	pq := &pedPQ{}
	heap.Init(pq)
	heap.Push(pq, &pedItem{t: start, priority: 0})

	gScore := map[Traversable]float64{start: 0}
	cameFrom := map[Traversable]Traversable{}
	visited := map[Traversable]bool{}

	heuristic := func(t Traversable) float64 {
		return Points(m, t).Last().Sub(goalPos).Len() * HeuristicFactor
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pedItem).t
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == goal {
			return reconstructPed(cameFrom, start, goal), true
		}
		for _, nb := range pedestrianSuccessors(m, cur) {
			tentative := gScore[cur] + nb.cost
			if g, ok := gScore[nb.to]; !ok || tentative < g {
				gScore[nb.to] = tentative
				cameFrom[nb.to] = cur
				heap.Push(pq, &pedItem{t: nb.to, priority: tentative + heuristic(nb.to)})
			}
		}
	}
	return nil, false
}

type pedEdge struct {
	to   Traversable
	cost float64
}

// pedestrianSuccessors returns the continuation of the current
// lane/turn plus every crossing turn available at the Traversable's
// arrival intersection.
func pedestrianSuccessors(m *roadgraph.Map, cur Traversable) []pedEdge {
	var out []pedEdge
	if cur.IsLane {
		lane, ok := m.Lane(cur.Lane)
		if !ok {
			return nil
		}
		arrivalInter := lane.Dst
		if cur.Direction == Backward {
			arrivalInter = lane.Src
		}
		inter, ok := m.Intersection(arrivalInter)
		if !ok {
			return nil
		}
		for _, t := range inter.Turns {
			if t.Kind != roadgraph.TurnWalkingCorner && t.Kind != roadgraph.TurnCrosswalk {
				continue
			}
			if t.SrcLane != cur.Lane {
				continue
			}
			cost := CrossingCost
			if t.Kind == roadgraph.TurnWalkingCorner {
				if dst, ok := m.Lane(t.DstLane); ok {
					cost = dst.Length()
				}
			}
			out = append(out, pedEdge{to: Traversable{Turn: t.ID, IsLane: false, Direction: Forward}, cost: cost})
		}
		// Walkers may also traverse the same lane backwards.
		if cur.Direction == Forward {
			out = append(out, pedEdge{to: Traversable{Lane: cur.Lane, IsLane: true, Direction: Backward}, cost: lane.Length()})
		}
	} else {
		turn, ok := m.Turn(cur.Turn)
		if !ok {
			return nil
		}
		dstLane, ok := m.Lane(turn.DstLane)
		if !ok {
			return nil
		}
		out = append(out, pedEdge{to: Traversable{Lane: turn.DstLane, IsLane: true, Direction: Forward}, cost: dstLane.Length()})
	}
	return out
}

func reconstructPed(cameFrom map[Traversable]Traversable, start, goal Traversable) []Traversable {
	path := []Traversable{goal}
	cur := goal
	for cur != start {
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pedItem struct {
	t        Traversable
	priority float64
	index    int
}

type pedPQ []*pedItem

func (pq pedPQ) Len() int { return len(pq) }
func (pq pedPQ) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	// Deterministic tiebreak on node identity (spec.md §4.D).
	return traversableLess(pq[i].t, pq[j].t)
}
func (pq pedPQ) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *pedPQ) Push(x any) {
	item := x.(*pedItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *pedPQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

func traversableLess(a, b Traversable) bool {
	if a.IsLane != b.IsLane {
		return a.IsLane
	}
	if a.IsLane {
		if a.Lane.Index != b.Lane.Index {
			return a.Lane.Index < b.Lane.Index
		}
		return a.Lane.Gen < b.Lane.Gen
	}
	if a.Turn.Index != b.Turn.Index {
		return a.Turn.Index < b.Turn.Index
	}
	return a.Turn.Gen < b.Turn.Gen
}
