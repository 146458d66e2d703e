package osmdb

import (
	"context"
)

const createNode = `
INSERT OR REPLACE INTO nodes (id, lat, lon, version, tags)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) error {
	_, err := q.db.ExecContext(ctx, createNode,
		arg.ID,
		arg.Lat,
		arg.Lon,
		arg.Version,
		arg.Tags,
	)
	return err
}

const getNode = `
SELECT id, lat, lon, version, tags FROM nodes WHERE id = ?
`

func (q *Queries) GetNode(ctx context.Context, id int64) (Node, error) {
	row := q.db.QueryRowContext(ctx, getNode, id)
	var i Node
	err := row.Scan(&i.ID, &i.Lat, &i.Lon, &i.Version, &i.Tags)
	return i, err
}

const getNodesWithinBounds = `
SELECT n.id, n.lat, n.lon, n.version, n.tags
FROM nodes_rtree r
JOIN nodes n ON n.id = r.id
WHERE r.min_lat >= ? AND r.max_lat <= ?
  AND r.min_lon >= ? AND r.max_lon <= ?
ORDER BY n.id
`

func (q *Queries) GetNodesWithinBounds(ctx context.Context, arg GetNodesWithinBoundsParams) ([]Node, error) {
	rows, err := q.db.QueryContext(ctx, getNodesWithinBounds,
		arg.MinLat,
		arg.MaxLat,
		arg.MinLon,
		arg.MaxLon,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck
	var items []Node
	for rows.Next() {
		var i Node
		if err := rows.Scan(&i.ID, &i.Lat, &i.Lon, &i.Version, &i.Tags); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countNodes = `SELECT COUNT(*) FROM nodes`

func (q *Queries) CountNodes(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNodes).Scan(&count)
	return count, err
}

const createImportMetadata = `
INSERT INTO import_metadata (source, format, nodes_seen, nodes_kept, imported_at)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateImportMetadata(ctx context.Context, arg CreateImportMetadataParams) error {
	_, err := q.db.ExecContext(ctx, createImportMetadata,
		arg.Source,
		arg.Format,
		arg.NodesSeen,
		arg.NodesKept,
		arg.ImportedAt,
	)
	return err
}
