package roadgraph

import "github.com/citysim/simcore/geom"

// regenerateParking regenerates every ParkingSpot along the Parking lanes
// of road id, at ParkingSpotStride (spec.md §3: "regenerated on any
// topology change to the lane").
func (m *Map) regenerateParking(id RoadID) {
	road, ok := m.roads.get(id.Index, id.Gen)
	if !ok {
		return
	}
	for _, lid := range append(append([]LaneID{}, road.LanesForward...), road.LanesBackward...) {
		lane, ok := m.lanes.get(lid.Index, lid.Gen)
		if !ok || lane.Kind != Parking {
			continue
		}
		m.removeSpotsOnLane(lid)
		m.generateSpotsOnLane(lane)
	}
}

func (m *Map) generateSpotsOnLane(lane *Lane) {
	length := lane.Length()
	if length <= 0 {
		return
	}
	n := int(length / ParkingSpotStride)
	traveled := 0.0
	segIdx := 0
	segLen := 0.0
	if len(lane.Points) >= 2 {
		segLen = lane.Points[1].Sub(lane.Points[0]).Len()
	}
	for i := 0; i < n; i++ {
		target := ParkingSpotStride/2 + float64(i)*ParkingSpotStride
		for segIdx < len(lane.Points)-2 && traveled+segLen < target {
			traveled += segLen
			segIdx++
			segLen = lane.Points[segIdx+1].Sub(lane.Points[segIdx]).Len()
		}
		var pos, dir geom.Vec3
		if segLen > 0 {
			t := (target - traveled) / segLen
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			a, b := lane.Points[segIdx], lane.Points[segIdx+1]
			pos = a.Add(b.Sub(a).Mul(t))
			dir = b.Sub(a)
		} else {
			pos = lane.Points.Last()
			dir = geom.Vec3{1, 0, 0}
		}
		idx, gen := m.spots.insert(ParkingSpot{Parent: lane.ID, Pos: pos, Dir: dir})
		spot, _ := m.spots.get(idx, gen)
		spot.ID = ParkingSpotID{Index: idx, Gen: gen}
	}
}

func (m *Map) removeSpotsOnLane(lane LaneID) {
	m.spots.each(func(idx, gen uint32, s *ParkingSpot) {
		if s.Parent == lane {
			m.spots.remove(idx, gen)
		}
	})
}
