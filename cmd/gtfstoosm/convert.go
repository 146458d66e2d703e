package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/gtfs"
	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/osmchange"
)

func (c *cli) newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a GTFS feed into an osmChange document",
		Example: "  gtfstoosm convert -i gtfs.zip -o routes.osc --osm-db osm.db\n" +
			"  gtfstoosm convert -i https://example.com/gtfs.zip -o - --exclude-stops",
		Args: cobra.NoArgs,
		RunE: c.runConvert,
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "GTFS zip file or URL (required)")
	flags.StringP("output", "o", "output/routes.osc", `osmChange output file, "-" for stdout`)
	flags.String("report", "", `write the run report as YAML to this file, "-" for stderr`)
	flags.Duration("feed-timeout", 0, "timeout for downloading the feed")
	flags.Bool("exclude-stops", false, "leave stops out: no nodes and no stop members")
	flags.Bool("exclude-routes", false, "create stop nodes only, without relations")
	flags.Bool("add-missing-stops", false, "create a new node for every stop, even when one exists nearby")
	flags.Float64("stop-search-radius", 10, "radius in meters used to match existing nodes (max 10)")
	flags.Bool("add-route-direction", false, "append the direction of travel to route names")
	flags.String("route-ref-pattern", "", "only convert routes whose id matches this regular expression")
	flags.String("agency", "", "only convert routes of this agency id")
	flags.IntSlice("route-types", nil, "only convert routes of these GTFS route types, e.g. 0,3")
	flags.String("relation-tags", "", `extra relation tags, e.g. "operator=Metro;network=King County"`)
	c.bindFlags(flags, map[string]string{
		"input":               "input",
		"output":              "output",
		"report":              "report",
		"feed-timeout":        "feed_timeout",
		"exclude-stops":       "exclude_stops",
		"exclude-routes":      "exclude_routes",
		"add-missing-stops":   "add_missing_stops",
		"stop-search-radius":  "stop_search_radius",
		"add-route-direction": "add_route_direction",
		"route-ref-pattern":   "route_ref_pattern",
		"agency":              "agency_id",
		"route-types":         "route_types",
		"relation-tags":       "relation_tags",
	})

	return cmd
}

func (c *cli) runConvert(cmd *cobra.Command, args []string) error {
	application, err := c.application()
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(application, application.Logger, "close_application")

	cfg := application.Config
	if cfg.Input == "" {
		return errors.New("no GTFS feed given: use --input")
	}

	// Check options before fetching a potentially large feed.
	opts := cfg.ConvertOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	feed, err := gtfs.Load(cmd.Context(), gtfs.Config{
		Source:  cfg.Input,
		Timeout: cfg.FeedTimeout,
		Verbose: cfg.Verbose,
	}, application.Logger)
	if err != nil {
		return err
	}

	application.Logger.Info("converting feed",
		"input", cfg.Input,
		"node_source", application.SourceName())

	doc, err := convert.Convert(cmd.Context(), feed, application.Source, opts, application.Logger)
	if err != nil {
		return err
	}

	if cfg.Output == "-" {
		if err := osmchange.Write(c.stdout, doc); err != nil {
			return err
		}
	} else if err := osmchange.WriteFile(cfg.Output, doc); err != nil {
		return err
	}

	if cfg.Report != "" {
		if err := c.writeReport(cfg.Report, doc.Report); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.stderr, "run %s: %d relations, %d new nodes, %d matched nodes, %d skipped\n",
		doc.RunID, doc.Report.Relations, doc.Report.NewStops, doc.Report.MatchedStops, len(doc.Report.Skipped))
	return nil
}

func (c *cli) writeReport(path string, report *convert.Report) (err error) {
	if path == "-" {
		return report.WriteYAML(c.stderr)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer logging.HandleDeferredError(&err, f.Close, nil, "close_report_file")

	return report.WriteYAML(f)
}
