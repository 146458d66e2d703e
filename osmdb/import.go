package osmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
	"github.com/qedus/osmpbf"

	"gtfstoosm.onebusaway.org/internal/logging"
)

// Format is the encoding of an OSM extract.
type Format string

const (
	FormatXML   Format = "xml"
	FormatXMLGz Format = "xml.gz"
	FormatPBF   Format = "pbf"
)

// FormatForPath guesses the extract format from a file name.
func FormatForPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".osm.pbf"), strings.HasSuffix(lower, ".pbf"):
		return FormatPBF, nil
	case strings.HasSuffix(lower, ".osm.gz"):
		return FormatXMLGz, nil
	case strings.HasSuffix(lower, ".osm"), strings.HasSuffix(lower, ".xml"):
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unrecognized OSM extract %q: expected .osm, .osm.gz or .pbf", path)
	}
}

// ImportStats counts the nodes read from an extract and those kept as
// transit stops.
type ImportStats struct {
	Seen     int
	Kept     int
	Duration time.Duration
}

// ImportFile imports the transit stop nodes of the extract at path.
func (c *Client) ImportFile(ctx context.Context, path string) (ImportStats, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return ImportStats{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("error opening OSM extract: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, c.logger, "osm_extract")

	return c.Import(ctx, f, format, path)
}

// Import reads an extract in the given format and stores its transit stop
// nodes. Other nodes, ways and relations are ignored. The import runs in a
// single transaction.
func (c *Client) Import(ctx context.Context, r io.Reader, format Format, source string) (stats ImportStats, err error) {
	start := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "osm_import")

	qtx := c.Queries.WithTx(tx)
	store := func(n *osm.Node) error {
		stats.Seen++
		if !IsTransitStop(n.Tags) {
			return nil
		}
		tags, err := encodeTags(n.Tags)
		if err != nil {
			return err
		}
		stats.Kept++
		return qtx.CreateNode(ctx, CreateNodeParams{
			ID:      int64(n.ID),
			Lat:     n.Lat,
			Lon:     n.Lon,
			Version: int64(n.Version),
			Tags:    tags,
		})
	}

	switch format {
	case FormatXML:
		err = scanXML(ctx, r, store)
	case FormatXMLGz:
		err = scanXMLGz(ctx, r, store)
	case FormatPBF:
		err = scanPBF(ctx, r, store)
	default:
		err = fmt.Errorf("unsupported OSM extract format %q", format)
	}
	if err != nil {
		return ImportStats{}, err
	}

	err = qtx.CreateImportMetadata(ctx, CreateImportMetadataParams{
		Source:     source,
		Format:     string(format),
		NodesSeen:  int64(stats.Seen),
		NodesKept:  int64(stats.Kept),
		ImportedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("error recording import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("error committing import: %w", err)
	}

	stats.Duration = time.Since(start)
	logging.LogOperation(c.logger, "osm_import_completed",
		slog.String("source", source),
		slog.String("format", string(format)),
		slog.Int("nodes_seen", stats.Seen),
		slog.Int("nodes_kept", stats.Kept),
		slog.Duration("duration", stats.Duration),
		slog.String("component", "osmdb"))
	return stats, nil
}

func scanXML(ctx context.Context, r io.Reader, store func(*osm.Node) error) (err error) {
	scanner := osmxml.New(ctx, r)
	defer logging.HandleDeferredError(&err, scanner.Close, nil, "osmxml_scanner")

	for scanner.Scan() {
		if n, ok := scanner.Object().(*osm.Node); ok {
			if err := store(n); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading OSM XML: %w", err)
	}
	return nil
}

func scanXMLGz(ctx context.Context, r io.Reader, store func(*osm.Node) error) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("error opening gzip stream: %w", err)
	}
	defer logging.SafeCloseWithLogging(zr, nil, "gzip_reader")
	return scanXML(ctx, zr, store)
}

func scanPBF(ctx context.Context, r io.Reader, store func(*osm.Node) error) error {
	decoder := osmpbf.NewDecoder(r)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return fmt.Errorf("error starting PBF decoder: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			go drain(decoder)
			return err
		}
		v, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading OSM PBF: %w", err)
		}
		if n, ok := v.(*osmpbf.Node); ok {
			node := &osm.Node{
				ID:      osm.NodeID(n.ID),
				Lat:     n.Lat,
				Lon:     n.Lon,
				Version: int(n.Info.Version),
				Visible: true,
				Tags:    tagsFromMap(n.Tags),
			}
			if err := store(node); err != nil {
				go drain(decoder)
				return err
			}
		}
	}
}

// drain reads the decoder to the end so its worker goroutines exit.
func drain(decoder *osmpbf.Decoder) {
	for {
		if _, err := decoder.Decode(); err != nil {
			return
		}
	}
}
