package itinerary

import (
	"fmt"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/spatial"
)

// ParkingReserveError is the typed "Transient resource" error named in
// spec.md §4.E / §7: the agent should yield and retry next tick rather
// than treat it as fatal.
type ParkingReserveError uint8

const (
	FindingNearestLane ParkingReserveError = iota
	FetchingLaneData
	NoSpotFoundAfterSearch
)

func (e ParkingReserveError) Error() string {
	switch e {
	case FindingNearestLane:
		return "parking: could not find a nearest parking lane"
	case FetchingLaneData:
		return "parking: could not fetch lane data"
	case NoSpotFoundAfterSearch:
		return "parking: no free spot found after search"
	default:
		return fmt.Sprintf("parking: unknown error %d", uint8(e))
	}
}

// SpotReservation is a held claim on a ParkingSpot.
type SpotReservation struct {
	Spot roadgraph.ParkingSpotID
	Pos  geom.Vec3
}

// ParkingManagement tracks reserved parking spots so two agents never
// reserve the same spot (spec.md §4.E).
type ParkingManagement struct {
	reserved map[roadgraph.ParkingSpotID]struct{}
}

// NewParkingManagement returns an empty reservation tracker.
func NewParkingManagement() *ParkingManagement {
	return &ParkingManagement{reserved: make(map[roadgraph.ParkingSpotID]struct{})}
}

// ReserveNear finds and reserves the nearest unreserved parking spot to
// pos among the parking lanes of the road nearest to pos (projected within
// 100 m); spots on other roads are not searched (spec.md §4.E).
func (p *ParkingManagement) ReserveNear(m *roadgraph.Map, pos geom.Vec3) (SpotReservation, error) {
	proj, ok := m.Project(pos, 100, spatial.Filter(spatial.KindRoad))
	if !ok {
		return SpotReservation{}, FindingNearestLane
	}
	road, ok := m.Road(proj.Road)
	if !ok {
		return SpotReservation{}, FetchingLaneData
	}

	var best roadgraph.ParkingSpotID
	bestDist := -1.0
	found := false
	allLanes := append(append([]roadgraph.LaneID{}, road.LanesForward...), road.LanesBackward...)
	for _, lid := range allLanes {
		lane, ok := m.Lane(lid)
		if !ok || lane.Kind != roadgraph.Parking {
			continue
		}
		m.ParkingSpots(func(s *roadgraph.ParkingSpot) {
			if s.Parent != lid {
				return
			}
			if _, reserved := p.reserved[s.ID]; reserved {
				return
			}
			d := s.Pos.Sub(pos).Len()
			if !found || d < bestDist {
				best, bestDist, found = s.ID, d, true
			}
		})
	}
	if !found {
		return SpotReservation{}, NoSpotFoundAfterSearch
	}
	spot, _ := m.ParkingSpot(best)
	p.reserved[best] = struct{}{}
	return SpotReservation{Spot: best, Pos: spot.Pos}, nil
}

// Free releases a reservation, making the spot available again. Freeing an
// unreserved spot is a no-op, matching the round-trip law
// `reserve(near); free(spot)` leaves ParkingManagement unchanged (spec.md
// §8).
func (p *ParkingManagement) Free(r SpotReservation) {
	delete(p.reserved, r.Spot)
}

// IsReserved reports whether spot is currently held.
func (p *ParkingManagement) IsReserved(spot roadgraph.ParkingSpotID) bool {
	_, ok := p.reserved[spot]
	return ok
}
