package osmdb

// Node is a row of the nodes table. Tags holds the node's tags as a JSON object.
type Node struct {
	ID      int64
	Lat     float64
	Lon     float64
	Version int64
	Tags    string
}

type CreateNodeParams struct {
	ID      int64
	Lat     float64
	Lon     float64
	Version int64
	Tags    string
}

type GetNodesWithinBoundsParams struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

type CreateImportMetadataParams struct {
	Source     string
	Format     string
	NodesSeen  int64
	NodesKept  int64
	ImportedAt string
}
