package convert

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-polyline"
	"gopkg.in/yaml.v3"

	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/models"
)

type SkipKind string

const (
	SkipRoute SkipKind = "route"
	SkipTrip  SkipKind = "trip"
)

// SkippedItem is an input item left out of the output. Skips never abort a run.
type SkippedItem struct {
	Kind    SkipKind `yaml:"kind"`
	ID      string   `yaml:"id"`
	RouteID string   `yaml:"route_id,omitempty"`
	Reason  string   `yaml:"reason"`
}

func (s SkippedItem) String() string {
	return fmt.Sprintf("%s %q: %s", s.Kind, s.ID, s.Reason)
}

// VariantSummary describes one route variant for reviewers. Polyline is the
// stop sequence as an encoded polyline.
type VariantSummary struct {
	RouteID   string `yaml:"route_id"`
	Direction string `yaml:"direction,omitempty"`
	Name      string `yaml:"name"`
	Stops     int    `yaml:"stops"`
	Trips     int    `yaml:"trips"`
	Polyline  string `yaml:"polyline"`
}

// Report summarizes a run.
type Report struct {
	RunID           string           `yaml:"run_id"`
	StartedAt       time.Time        `yaml:"started_at"`
	Duration        string           `yaml:"duration"`
	RoutesInFeed    int              `yaml:"routes_in_feed"`
	RoutesFiltered  int              `yaml:"routes_filtered"`
	RoutesConverted int              `yaml:"routes_converted"`
	MatchedStops    int              `yaml:"matched_stops"`
	NewStops        int              `yaml:"new_stops"`
	Relations       int              `yaml:"relations"`
	Variants        []VariantSummary `yaml:"variants,omitempty"`
	Skipped         []SkippedItem    `yaml:"skipped,omitempty"`

	logger *slog.Logger
}

func newReport(logger *slog.Logger) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		logger:    logger,
	}
}

func (r *Report) skip(item SkippedItem) {
	r.Skipped = append(r.Skipped, item)
	logging.LogSkip(r.logger, string(item.Kind), item.Reason,
		slog.String("id", item.ID),
		slog.String("route_id", item.RouteID),
		slog.String("run_id", r.RunID),
		slog.String("component", "converter"))
}

func (r *Report) addVariant(v *Variant, name string, stops []models.ScheduleStop) {
	coords := make([][]float64, 0, len(stops))
	for _, s := range stops {
		coords = append(coords, []float64{s.Location.Lat, s.Location.Lon})
	}
	r.Variants = append(r.Variants, VariantSummary{
		RouteID:   v.RouteID,
		Direction: v.Direction.String(),
		Name:      name,
		Stops:     len(v.StopIDs),
		Trips:     len(v.TripIDs),
		Polyline:  string(polyline.EncodeCoords(coords)),
	})
}

// WriteYAML writes the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	return enc.Close()
}
