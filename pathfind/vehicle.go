package pathfind

import "github.com/citysim/simcore/roadgraph"

// VehiclePath finds a driving path from start to goal lane using the
// directional A* variant (spec.md §4.D): nodes are lane ids, successors
// come from inter.turns_from(lane), edge cost is the destination lane's
// length, heuristic is euclidean(dst_of_lane, goal) * HeuristicFactor.
//
// The returned path is expanded into [start, turn1, lane1, turn2, lane2,
// ..., goal] Traversable entries, all Forward (vehicles never drive a
// lane backwards).
func VehiclePath(m *roadgraph.Map, start, goal roadgraph.LaneID) ([]Traversable, bool) {
	goalLane, ok := m.Lane(goal)
	if !ok {
		return nil, false
	}
	goalPos := goalLane.Points.Last()

	neighbors := func(n int64) []edge {
		lane, ok := m.Lane(laneIDFromNode(n))
		if !ok {
			return nil
		}
		inter, ok := m.Intersection(lane.Dst)
		if !ok {
			return nil
		}
		var out []edge
		for _, t := range inter.Turns {
			if t.Kind != roadgraph.TurnDriving || t.SrcLane != lane.ID {
				continue
			}
			dstLane, ok := m.Lane(t.DstLane)
			if !ok {
				continue
			}
			out = append(out, edge{to: laneNodeID(t.DstLane), cost: dstLane.Length()})
		}
		return out
	}
	heuristic := func(n int64) float64 {
		lane, ok := m.Lane(laneIDFromNode(n))
		if !ok {
			return 0
		}
		return lane.Points.Last().Sub(goalPos).Len() * HeuristicFactor
	}

	nodes, found := genericAStar(laneNodeID(start), laneNodeID(goal), neighbors, heuristic)
	if !found {
		return nil, false
	}
	return expandVehiclePath(m, nodes), true
}

// expandVehiclePath turns a sequence of lane nodes into the
// [lane, turn, lane, turn, ...] Traversable sequence, looking up the turn
// that connects each consecutive pair of lanes.
func expandVehiclePath(m *roadgraph.Map, laneNodes []int64) []Traversable {
	out := make([]Traversable, 0, len(laneNodes)*2)
	for i, n := range laneNodes {
		lid := laneIDFromNode(n)
		out = append(out, Traversable{Lane: lid, IsLane: true, Direction: Forward})
		if i == len(laneNodes)-1 {
			break
		}
		nextLid := laneIDFromNode(laneNodes[i+1])
		lane, _ := m.Lane(lid)
		inter, ok := m.Intersection(lane.Dst)
		if !ok {
			continue
		}
		for _, t := range inter.Turns {
			if t.SrcLane == lid && t.DstLane == nextLid {
				out = append(out, Traversable{Turn: t.ID, IsLane: false, Direction: Forward})
				break
			}
		}
	}
	return out
}
