package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"gtfstoosm.onebusaway.org/internal/logging"
	"gtfstoosm.onebusaway.org/internal/restapi"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Args:  cobra.NoArgs,
		RunE:  c.runServe,
	}

	flags := cmd.Flags()
	flags.Int("port", 4000, "API server port")
	flags.StringSlice("api-keys", []string{"test"}, "comma separated API keys")
	flags.Int("rate-limit", 100, "requests per second allowed for each API key")
	flags.Int64("max-upload-bytes", 200<<20, "largest feed archive accepted")
	c.bindFlags(flags, map[string]string{
		"port":             "port",
		"api-keys":         "api_keys",
		"rate-limit":       "rate_limit",
		"max-upload-bytes": "max_upload_bytes",
	})
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	application, err := c.application()
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(application, application.Logger, "close_application")

	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", application.Config.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
		ErrorLog:     slog.NewLogLogger(application.Logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		application.Logger.Info("starting server",
			"addr", srv.Addr,
			"env", application.Config.Env.String(),
			"node_source", application.SourceName())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	application.Logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
