package osmdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"gtfstoosm.onebusaway.org/internal/utils"
)

// Client is a local extract of existing transit stop nodes, indexed for
// radius searches.
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
	logger  *slog.Logger
}

// NewClient opens the database described by config and applies the schema.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := createDB(config)
	if err != nil {
		return nil, err
	}
	if config.verbose {
		logger.Info("osm database ready", slog.String("path", config.DBPath), slog.String("component", "osmdb"))
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
		logger:  logger,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// NodesNear returns the stored nodes within radius meters of point, ordered
// by id. A bounding box query on the spatial index is refined by great-circle
// distance.
func (c *Client) NodesNear(ctx context.Context, point orb.Point, radius float64) ([]*osm.Node, error) {
	bound := utils.BoundAround(point, radius)
	rows, err := c.Queries.GetNodesWithinBounds(ctx, GetNodesWithinBoundsParams{
		MinLat: bound.Min.Lat(),
		MaxLat: bound.Max.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLon: bound.Max.Lon(),
	})
	if err != nil {
		return nil, fmt.Errorf("error querying nodes near %v: %w", point, err)
	}

	nodes := make([]*osm.Node, 0, len(rows))
	for _, row := range rows {
		n, err := row.toOSM()
		if err != nil {
			return nil, err
		}
		if utils.Distance(point, n.Point()) <= radius {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// Node returns a stored node by id.
func (c *Client) Node(ctx context.Context, id osm.NodeID) (*osm.Node, error) {
	row, err := c.Queries.GetNode(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	return row.toOSM()
}
