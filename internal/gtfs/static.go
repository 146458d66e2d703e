package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"

	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/models"
)

// FeedError reports a feed that could not be read or parsed.
type FeedError struct {
	Source string
	Err    error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("error loading GTFS feed %s: %v", e.Source, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func rawGtfsData(ctx context.Context, config Config) ([]byte, error) {
	if config.isLocalFile() {
		b, err := os.ReadFile(config.Source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("error building GTFS request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, slog.Default(), "gtfs_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading GTFS data: unexpected status %s", resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return b, nil
}

// Load reads the feed named by config.Source and converts it to the schedule
// model. Any failure is returned as a *FeedError.
func Load(ctx context.Context, config Config, logger *slog.Logger) (*models.Feed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	b, err := rawGtfsData(ctx, config)
	if err != nil {
		return nil, &FeedError{Source: config.Source, Err: err}
	}

	feed, err := Parse(b, logger)
	if err != nil {
		var feedErr *FeedError
		if errors.As(err, &feedErr) {
			feedErr.Source = config.Source
		}
		return nil, err
	}

	if config.Verbose {
		counts := feed.Counts()
		logging.LogOperation(logger, "gtfs_feed_loaded",
			slog.String("source", config.Source),
			slog.Int("agencies", counts["agencies"]),
			slog.Int("routes", counts["routes"]),
			slog.Int("stops", counts["stops"]),
			slog.Int("trips", counts["trips"]),
			slog.Duration("duration", time.Since(start)),
			slog.String("component", "feed_reader"))
	}
	return feed, nil
}

// Parse converts the bytes of a GTFS zip archive to the schedule model.
func Parse(b []byte, logger *slog.Logger) (*models.Feed, error) {
	if logger == nil {
		logger = slog.Default()
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, &FeedError{Source: "archive", Err: fmt.Errorf("error parsing GTFS data: %w", err)}
	}
	return toFeed(staticData, logger), nil
}

func toFeed(staticData *gtfs.Static, logger *slog.Logger) *models.Feed {
	agencies := make([]models.Agency, 0, len(staticData.Agencies))
	for _, a := range staticData.Agencies {
		agencies = append(agencies, models.Agency{ID: a.Id, Name: a.Name, URL: a.Url})
	}

	singleAgencyID := ""
	if len(staticData.Agencies) == 1 {
		singleAgencyID = staticData.Agencies[0].Id
	}

	routes := make([]models.ScheduleRoute, 0, len(staticData.Routes))
	for _, r := range staticData.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil && r.Agency.Id != "" {
			agencyID = r.Agency.Id
		}
		routes = append(routes, models.ScheduleRoute{
			ID:        r.Id,
			AgencyID:  agencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      int(r.Type),
			Color:     r.Color,
			TextColor: r.TextColor,
		})
	}

	stops := make([]models.ScheduleStop, 0, len(staticData.Stops))
	for _, s := range staticData.Stops {
		if s.Latitude == nil || s.Longitude == nil {
			logging.LogSkip(logger, "stop", "missing coordinates",
				slog.String("stop_id", s.Id),
				slog.String("component", "feed_reader"))
			continue
		}
		stops = append(stops, models.ScheduleStop{
			ID:           s.Id,
			Code:         s.Code,
			Name:         s.Name,
			Description:  s.Description,
			PlatformCode: s.PlatformCode,
			Location:     models.CoordinatePoint{Lat: *s.Latitude, Lon: *s.Longitude},
		})
	}

	trips := make([]models.ScheduleTrip, 0, len(staticData.Trips))
	for _, t := range staticData.Trips {
		if t.Route == nil {
			continue
		}
		stopIDs := make([]string, 0, len(t.StopTimes))
		for _, st := range t.StopTimes {
			if st.Stop != nil {
				stopIDs = append(stopIDs, st.Stop.Id)
			}
		}
		trips = append(trips, models.ScheduleTrip{
			ID:        t.ID,
			RouteID:   t.Route.Id,
			Headsign:  t.Headsign,
			Direction: toDirection(t.DirectionId),
			StopIDs:   stopIDs,
		})
	}

	return models.NewFeed(agencies, routes, stops, trips)
}

func toDirection(d gtfs.DirectionID) models.Direction {
	switch d {
	case gtfs.DirectionID_False:
		return models.DirectionOutbound
	case gtfs.DirectionID_True:
		return models.DirectionInbound
	default:
		return models.DirectionUnspecified
	}
}
