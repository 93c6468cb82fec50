package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/citysim/simcore/geom"
	"github.com/citysim/simcore/roadgraph"
	"github.com/citysim/simcore/wcmd"
)

func registerBuiltins(c *Console) {
	c.Register("connect", parseConnect)
	c.Register("removeroad", parseRemoveRoad)
	c.Register("removeintersection", parseRemoveIntersection)
	c.Register("spawntrain", parseSpawnTrain)
	c.Register("say", parseSay)
}

// parseConnect parses: connect x1,y1,z1 x2,y2,z2 [lanesForward] [lanesBackward]
func parseConnect(args []string) (wcmd.Command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: connect <from x,y,z> <to x,y,z> [lanesFwd] [lanesBack]")
	}
	from, err := parseVec3(args[0])
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := parseVec3(args[1])
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	lanesFwd, lanesBack := 1, 1
	if len(args) >= 3 {
		lanesFwd, err = strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("lanesFwd: %w", err)
		}
	}
	if len(args) >= 4 {
		lanesBack, err = strconv.Atoi(args[3])
		if err != nil {
			return nil, fmt.Errorf("lanesBack: %w", err)
		}
	}

	pattern := roadgraph.LanePattern{
		LanesForward:  repeatLaneKind(roadgraph.Driving, lanesFwd),
		LanesBackward: repeatLaneKind(roadgraph.Driving, lanesBack),
		Width:         3.5,
	}
	return wcmd.MapMakeConnection{From: from, To: to, Pattern: pattern}, nil
}

func repeatLaneKind(kind roadgraph.LaneKind, n int) []roadgraph.LaneKind {
	lanes := make([]roadgraph.LaneKind, n)
	for i := range lanes {
		lanes[i] = kind
	}
	return lanes
}

func parseRemoveRoad(args []string) (wcmd.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: removeroad <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	return wcmd.MapRemoveRoad{Road: roadgraph.RoadID(id)}, nil
}

func parseRemoveIntersection(args []string) (wcmd.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: removeintersection <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	return wcmd.MapRemoveIntersection{Intersection: roadgraph.IntersectionID(id)}, nil
}

func parseSpawnTrain(args []string) (wcmd.Command, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("usage: spawntrain <laneID> <dist> <wagons>")
	}
	laneID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("laneID: %w", err)
	}
	dist, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("dist: %w", err)
	}
	wagons, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("wagons: %w", err)
	}
	return wcmd.SpawnTrain{Lane: roadgraph.LaneID(laneID), Dist: dist, NWagons: wagons}, nil
}

func parseSay(args []string) (wcmd.Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: say <message...>")
	}
	return wcmd.SendMessage{From: "console", Message: strings.Join(args, " ")}.Normalize(), nil
}

func parseVec3(s string) (geom.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v geom.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = f
	}
	return v, nil
}
