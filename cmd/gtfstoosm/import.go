package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gtfstoosm.onebusaway.org/internal/logging"
)

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-osm <extract>",
		Short: "Load the transit stops of an OSM extract into the node database",
		Long: "import-osm reads an .osm, .osm.gz or .pbf extract and stores its public transport " +
			"stop nodes in the SQLite database given by --osm-db, where convert can match against them.",
		Example: "  gtfstoosm import-osm --osm-db osm.db washington-latest.osm.pbf",
		Args:    cobra.ExactArgs(1),
		RunE:    c.runImport,
	}
}

func (c *cli) runImport(cmd *cobra.Command, args []string) error {
	application, err := c.application()
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(application, application.Logger, "close_application")

	if application.OSMDB == nil {
		return errors.New("no node database given: use --osm-db")
	}

	stats, err := application.OSMDB.ImportFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "imported %d of %d nodes from %s in %s\n", stats.Kept, stats.Seen, args[0], stats.Duration)

	if application.Config.Verbose {
		counts, err := application.OSMDB.TableCounts(cmd.Context())
		if err != nil {
			return err
		}
		tables := make([]string, 0, len(counts))
		for table := range counts {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Fprintf(c.stdout, "  %-20s %d\n", table, counts[table])
		}
	}
	return nil
}
