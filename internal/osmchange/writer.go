package osmchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/logging"
)

const (
	Generator = "gtfstoosm"
	Version   = "0.6"
)

// Build returns the change set for doc: its new nodes and all relations go
// in the create block. Matched map nodes are referenced but not included.
func Build(doc *convert.Document) *osm.Change {
	return &osm.Change{
		Version:   Version,
		Generator: Generator,
		Create: &osm.OSM{
			Version:   Version,
			Generator: Generator,
			Nodes:     osm.Nodes(doc.Nodes),
			Relations: osm.Relations(doc.Relations),
		},
	}
}

// Write encodes doc as an osmChange XML document.
func Write(w io.Writer, doc *convert.Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(Build(doc)); err != nil {
		return fmt.Errorf("error encoding osmChange: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes doc to path, creating parent directories as needed.
func WriteFile(path string, doc *convert.Document) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer logging.HandleDeferredError(&err, f.Close, nil, "close_output_file")

	return Write(f, doc)
}
