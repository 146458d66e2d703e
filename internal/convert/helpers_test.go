package convert

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/models"
	"gtfstoosm.onebusaway.org/internal/utils"
)

var origin = models.CoordinatePoint{Lat: 47.6062, Lon: -122.3321}

// northOf returns a coordinate the given number of meters north of c.
func northOf(c models.CoordinatePoint, meters float64) models.CoordinatePoint {
	return models.CoordinatePoint{Lat: c.Lat + meters/orb.EarthRadius*180/math.Pi, Lon: c.Lon}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is an in-memory NodeSource that counts lookups per point.
type fakeSource struct {
	mu      sync.Mutex
	nodes   []*osm.Node
	err     error
	calls   int
	byPoint map[orb.Point]int
}

func newFakeSource(nodes ...*osm.Node) *fakeSource {
	return &fakeSource{nodes: nodes, byPoint: make(map[orb.Point]int)}
}

func (s *fakeSource) NodesNear(ctx context.Context, point orb.Point, radius float64) ([]*osm.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.byPoint[point]++
	if s.err != nil {
		return nil, s.err
	}

	var out []*osm.Node
	for _, n := range s.nodes {
		if utils.Distance(point, n.Point()) <= radius+50 {
			out = append(out, n)
		}
	}
	return out, nil
}

func existingNode(id osm.NodeID, at models.CoordinatePoint, tags ...osm.Tag) *osm.Node {
	return &osm.Node{ID: id, Lat: at.Lat, Lon: at.Lon, Version: 3, Visible: true, Tags: tags}
}

func stop(id string, at models.CoordinatePoint) models.ScheduleStop {
	return models.ScheduleStop{ID: id, Name: "Stop " + id, Location: at}
}

func trip(id, routeID string, direction models.Direction, stopIDs ...string) models.ScheduleTrip {
	return models.ScheduleTrip{ID: id, RouteID: routeID, Direction: direction, StopIDs: stopIDs}
}

// scenarioFeed has one bus route with two identical three-stop outbound trips
// and one reversed inbound trip. Stops are 100 m apart.
func scenarioFeed() *models.Feed {
	return models.NewFeed(
		[]models.Agency{{ID: "X", Name: "Agency X"}},
		[]models.ScheduleRoute{{ID: "R1", AgencyID: "X", ShortName: "1", LongName: "Main St", Type: 3, Color: "FFFFFF"}},
		[]models.ScheduleStop{
			stop("A", origin),
			stop("B", northOf(origin, 100)),
			stop("C", northOf(origin, 200)),
		},
		[]models.ScheduleTrip{
			trip("t1", "R1", models.DirectionOutbound, "A", "B", "C"),
			trip("t2", "R1", models.DirectionOutbound, "A", "B", "C"),
			trip("t3", "R1", models.DirectionInbound, "C", "B", "A"),
		},
	)
}
