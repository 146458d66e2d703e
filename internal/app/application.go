package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"gtfstoosm.onebusaway.org/internal/appconf"
	"gtfstoosm.onebusaway.org/internal/convert"
	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/overpass"
	"gtfstoosm.onebusaway.org/osmdb"
)

// Application holds the dependencies shared by the command line tool and the
// HTTP handlers.
type Application struct {
	Config appconf.Config
	Logger *slog.Logger
	// Source finds existing map nodes. It is nil when neither a local
	// extract nor an Overpass endpoint is configured.
	Source convert.NodeSource
	OSMDB  *osmdb.Client
}

// New builds an Application from cfg. A local OSM database takes precedence
// over an Overpass endpoint.
func New(cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{Config: cfg, Logger: logger}

	switch {
	case cfg.OSMDBPath != "":
		client, err := osmdb.NewClient(osmdb.NewConfig(cfg.OSMDBPath, cfg.Env, cfg.Verbose), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open OSM database: %w", err)
		}
		app.OSMDB = client
		app.Source = client
	case cfg.OverpassURL != "":
		app.Source = overpass.NewClient(cfg.OverpassURL,
			overpass.WithLogger(logger),
			overpass.WithHTTPClient(&http.Client{Timeout: cfg.OverpassTimeout}))
	}

	return app, nil
}

// NewWriterLogger builds the logger described by cfg, writing to w.
func NewWriterLogger(w io.Writer, cfg appconf.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(w, level, cfg.LogFormat)
}

// SourceName describes the configured node source for logs.
func (app *Application) SourceName() string {
	switch {
	case app.OSMDB != nil:
		return "osmdb:" + app.Config.OSMDBPath
	case app.Source != nil:
		return "overpass:" + app.Config.OverpassURL
	default:
		return "none"
	}
}

func (app *Application) Close() error {
	if app.OSMDB != nil {
		return app.OSMDB.Close()
	}
	return nil
}
