package convert

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/models"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// NodeSource finds existing map nodes near a point. Implementations return
// every candidate they know of within radius meters; the resolver picks the
// nearest. An error means the lookup could not be completed.
type NodeSource interface {
	NodesNear(ctx context.Context, point orb.Point, radius float64) ([]*osm.Node, error)
}

// MapNode is the map entity a schedule stop resolved to.
type MapNode struct {
	Node    *osm.Node
	StopID  string
	Matched bool
	// Distance in meters from the stop to a matched node.
	Distance float64
}

// StopResolver maps schedule stops to map nodes. Each stop id is resolved
// once per run; later calls return the same *MapNode.
type StopResolver struct {
	source     NodeSource
	ids        *IdentifierSpace
	radius     float64
	addMissing bool
	logger     *slog.Logger

	cache    map[string]*MapNode
	created  []*osm.Node
	existing []*osm.Node
	seen     map[osm.NodeID]bool
}

// NewStopResolver creates a resolver for one run. A nil source matches nothing.
func NewStopResolver(source NodeSource, ids *IdentifierSpace, radius float64, addMissing bool, logger *slog.Logger) *StopResolver {
	return &StopResolver{
		source:     source,
		ids:        ids,
		radius:     utils.ClampRadius(radius),
		addMissing: addMissing,
		logger:     logger,
		cache:      make(map[string]*MapNode),
		seen:       make(map[osm.NodeID]bool),
	}
}

// Resolve returns the node for stop. mode is the OSM route value of the
// route being assembled and only affects the tags of a newly created node.
func (r *StopResolver) Resolve(ctx context.Context, stop models.ScheduleStop, mode string) (*MapNode, error) {
	if n, ok := r.cache[stop.ID]; ok {
		return n, nil
	}

	match, distance, err := r.nearest(ctx, stop)
	if err != nil {
		return nil, err
	}

	var n *MapNode
	if match != nil && !r.addMissing {
		n = &MapNode{Node: match, StopID: stop.ID, Matched: true, Distance: distance}
		if !r.seen[match.ID] {
			r.seen[match.ID] = true
			r.existing = append(r.existing, match)
		}
		r.logger.Debug("stop matched existing node",
			slog.String("stop_id", stop.ID),
			slog.Int64("node_id", int64(match.ID)),
			slog.Float64("distance_m", distance),
			slog.String("component", "stop_resolver"))
	} else {
		node := &osm.Node{
			ID:      r.ids.NextNodeID(),
			Lat:     stop.Location.Lat,
			Lon:     stop.Location.Lon,
			Version: 0,
			Visible: true,
			Tags:    platformTags(stop, mode),
		}
		r.created = append(r.created, node)
		n = &MapNode{Node: node, StopID: stop.ID}
		r.logger.Debug("stop needs new node",
			slog.String("stop_id", stop.ID),
			slog.Int64("node_id", int64(node.ID)),
			slog.Bool("had_match", match != nil),
			slog.String("component", "stop_resolver"))
	}

	r.cache[stop.ID] = n
	return n, nil
}

func (r *StopResolver) nearest(ctx context.Context, stop models.ScheduleStop) (*osm.Node, float64, error) {
	if r.source == nil {
		return nil, 0, nil
	}

	candidates, err := r.source.NodesNear(ctx, stop.Point(), r.radius)
	if err != nil {
		return nil, 0, &SourceUnavailableError{StopID: stop.ID, Err: err}
	}

	valid := candidates[:0:0]
	for _, c := range candidates {
		if c != nil && c.ID > 0 {
			valid = append(valid, c)
		}
	}

	best, distance, ok := utils.NearestWithin(stop.Point(), valid, (*osm.Node).Point, r.radius)
	if !ok {
		return nil, 0, nil
	}
	return best, distance, nil
}

// NewNodes returns the nodes created so far, in creation order.
func (r *StopResolver) NewNodes() []*osm.Node {
	return r.created
}

// MatchedNodes returns the distinct existing nodes matched so far, in the
// order they were first matched.
func (r *StopResolver) MatchedNodes() []*osm.Node {
	return r.existing
}
