package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/models"
)

// Converter turns a schedule feed into route relations.
type Converter struct {
	opts   Options
	source NodeSource
	filter *RouteFilter
	logger *slog.Logger
}

// New validates opts and returns a Converter. Invalid options yield a
// *ConfigurationError. source may be nil, in which case every stop gets a new node.
func New(opts Options, source NodeSource, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized(logger)

	filter, err := NewRouteFilter(opts)
	if err != nil {
		return nil, err
	}

	return &Converter{
		opts:   opts,
		source: source,
		filter: filter,
		logger: logger,
	}, nil
}

// Convert is shorthand for New followed by Converter.Convert.
func Convert(ctx context.Context, feed *models.Feed, source NodeSource, opts Options, logger *slog.Logger) (*Document, error) {
	c, err := New(opts, source, logger)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, feed)
}

// Convert runs one conversion. Identifiers and resolved stops are scoped to
// the call. On error no document is returned.
func (c *Converter) Convert(ctx context.Context, feed *models.Feed) (*Document, error) {
	if feed == nil {
		return nil, errors.New("feed is nil")
	}

	start := time.Now()
	report := newReport(c.logger)
	ids := NewIdentifierSpace()

	var (
		resolver *StopResolver
		resolve  ResolveFunc
	)
	if !c.opts.ExcludeStops {
		resolver = NewStopResolver(c.source, ids, c.opts.StopSearchRadiusMeters, c.opts.AddMissingStops, c.logger)
		resolve = resolver.Resolve
	}

	if c.opts.AgencyID != "" && len(feed.RoutesForAgencyID(c.opts.AgencyID)) == 0 {
		c.logger.Warn("feed has no routes for agency",
			slog.String("agency_id", c.opts.AgencyID),
			slog.String("component", "converter"))
	}

	routes, filtered := c.filter.Apply(feed.Routes)
	report.RoutesInFeed = len(feed.Routes)
	report.RoutesFiltered = filtered

	logging.LogOperation(c.logger, "conversion_started",
		slog.String("run_id", report.RunID),
		slog.Int("routes", len(routes)),
		slog.Int("routes_filtered", filtered),
		slog.Bool("exclude_stops", c.opts.ExcludeStops),
		slog.Bool("exclude_routes", c.opts.ExcludeRoutes),
		slog.Float64("stop_search_radius", c.opts.StopSearchRadiusMeters),
		slog.String("component", "converter"))

	assembler := NewAssembler(ids, feed, c.opts)
	doc := &Document{RunID: report.RunID, Report: report}

	for _, route := range routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mode, ok := RouteMode(route.Type)
		if !ok {
			report.skip(SkippedItem{
				Kind:   SkipRoute,
				ID:     route.ID,
				Reason: fmt.Sprintf("unsupported route type %d", route.Type),
			})
			continue
		}

		variants, skipped := Deduplicate(route, feed.TripsForRoute(route.ID), feed)
		for _, s := range skipped {
			report.skip(s)
		}
		if len(variants) == 0 {
			report.skip(SkippedItem{Kind: SkipRoute, ID: route.ID, Reason: "no trip with a usable stop pattern"})
			continue
		}

		if c.opts.ExcludeRoutes {
			if err := c.resolveOnly(ctx, feed, variants, mode, resolve); err != nil {
				return nil, err
			}
			report.RoutesConverted++
			continue
		}

		assembled, master, err := assembler.Assemble(ctx, route, variants, resolve)
		if err != nil {
			return nil, fmt.Errorf("error assembling route %q: %w", route.ID, err)
		}
		for _, av := range assembled {
			doc.Relations = append(doc.Relations, av.Relation)
			report.addVariant(av.Variant, av.Relation.Tags.Find("name"), av.Stops)
		}
		doc.Relations = append(doc.Relations, master)
		report.RoutesConverted++
	}

	if resolver != nil {
		doc.Nodes = resolver.NewNodes()
		doc.Existing = resolver.MatchedNodes()
	}

	if err := doc.CheckReferences(); err != nil {
		return nil, err
	}

	report.NewStops = len(doc.Nodes)
	report.MatchedStops = len(doc.Existing)
	report.Relations = len(doc.Relations)
	report.Duration = time.Since(start).String()

	logging.LogOperation(c.logger, "conversion_finished",
		slog.String("run_id", report.RunID),
		slog.Int("routes_converted", report.RoutesConverted),
		slog.Int("relations", report.Relations),
		slog.Int("new_nodes", report.NewStops),
		slog.Int("matched_nodes", report.MatchedStops),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", time.Since(start)),
		slog.String("component", "converter"))

	return doc, nil
}

// resolveOnly resolves the stops of each variant without building relations.
func (c *Converter) resolveOnly(ctx context.Context, stops StopLookup, variants []*Variant, mode string, resolve ResolveFunc) error {
	for _, v := range variants {
		for _, id := range v.StopIDs {
			s, _ := stops.Stop(id)
			if _, err := resolve(ctx, s, mode); err != nil {
				return err
			}
		}
	}
	return nil
}
