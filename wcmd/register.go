package wcmd

import "github.com/citysim/simcore/net"

func init() {
	net.RegisterCommand(MapMakeConnection{})
	net.RegisterCommand(MapMakeMultipleConnections{})
	net.RegisterCommand(MapRemoveRoad{})
	net.RegisterCommand(MapRemoveIntersection{})
	net.RegisterCommand(MapUpdateIntersectionPolicy{})
	net.RegisterCommand(MapBuildHouse{})
	net.RegisterCommand(MapBuildSpecialBuilding{})
	net.RegisterCommand(UpdateZone{})
	net.RegisterCommand(MoveZonePoint{})
	net.RegisterCommand(SpawnTrain{})
	net.RegisterCommand(AddTrain{})
	net.RegisterCommand(SendMessage{})
}
