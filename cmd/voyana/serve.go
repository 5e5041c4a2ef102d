package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/briculinos/voyana/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP planning service",
	Long: `Start the HTTP server exposing the planning API: POST /api/plan,
POST /api/plan/stream (Server-Sent Events), GET /health and
GET /api/destinations.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.bus.Close()

	srv := server.New(a.runner, a.llm, a.flights, a.lodging, cfg.Server, version, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
