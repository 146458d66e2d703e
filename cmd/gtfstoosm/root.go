package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gtfstoosm.onebusaway.org/internal/app"
	"gtfstoosm.onebusaway.org/internal/appconf"
)

// cli carries the state shared by the subcommands of one invocation.
type cli struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), stdout: stdout, stderr: stderr}
	appconf.SetDefaults(c.v)

	rootCmd := &cobra.Command{
		Use:   "gtfstoosm",
		Short: "Convert GTFS feeds into OpenStreetMap public transport relations",
		Long: "gtfstoosm reads a GTFS schedule feed and writes an osmChange document with one " +
			"route relation per distinct stop pattern and one route_master per route.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .gtfstoosm.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("env", "development", "environment (development|test|production)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")
	flags.String("osm-db", "", "SQLite database of existing map nodes, see import-osm")
	flags.String("overpass-url", "", "Overpass API endpoint used to find existing map nodes")
	flags.Duration("overpass-timeout", 0, "timeout of a single Overpass request")
	c.bindFlags(flags, map[string]string{
		"verbose":          "verbose",
		"env":              "env",
		"log-level":        "log_level",
		"log-format":       "log_format",
		"osm-db":           "osm_db",
		"overpass-url":     "overpass_url",
		"overpass-timeout": "overpass_timeout",
	})

	rootCmd.AddCommand(c.newConvertCmd(), c.newImportCmd(), c.newServeCmd())
	return rootCmd
}

// bindFlags maps command line flags onto configuration keys. Flags only
// override the file and environment when they are set.
func (c *cli) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func (c *cli) initConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
	} else {
		c.v.SetConfigName(".gtfstoosm")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(home)
		}
	}

	c.v.SetEnvPrefix(appconf.EnvPrefix)
	c.v.AutomaticEnv()

	// A missing default config file is fine; defaults apply.
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// application loads the configuration and builds the shared dependencies.
// Logs go to stderr so that stdout can carry output documents.
func (c *cli) application() (*app.Application, error) {
	cfg, err := appconf.Load(c.v)
	if err != nil {
		return nil, err
	}

	logger, err := app.NewWriterLogger(c.stderr, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	return app.New(cfg, logger)
}
