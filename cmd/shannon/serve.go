package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serveFlags = struct {
	addr string
}{}

func init() {
	serveCMD.Flags().StringVarP(&serveFlags.addr, "addr", "a", "", "listen address (default from config)")
}

// serveCMD runs the shannon serve subcommand.
var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Serve the table and generation HTTP API",
	Args:  cobra.NoArgs,
	RunE:  withApp(runServe),
}

func runServe(a *app, cmd *cobra.Command, _ []string) error {
	addr := serveFlags.addr
	if addr == "" {
		addr = a.config.Server.Addr
	}

	mux := http.NewServeMux()
	NewTableAPI(a.store, a.config.Generation.DefaultLength, a.logger).RegisterRoutes(mux)
	apiHttpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-cmd.Context().Done(): // Block here until an OS signal arrives.
	}

	a.logger.Info("Stopping api server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiHttpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Api server shutdown failed", "error", err)
		return err
	}
	a.logger.Info("HTTP server stopped.")
	return nil
}
