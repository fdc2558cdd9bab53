package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/metrics"
	"github.com/lawnchairsociety/wavetiles/internal/server"
)

var (
	serveAddress string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve solves over WebSocket (/ws), PNG renders (/render) and metrics (/metrics)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (overrides server.address)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("address") {
		cfg.Server.Address = serveAddress
	}

	set, err := loadTileSet(cfg)
	if err != nil {
		return err
	}
	logger.Info("Tiles loaded", "dir", cfg.Tiles.Dir, "count", set.Catalog.Len())

	srv := server.NewServer(cfg, set, metrics.New(nil))

	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		srv.SetDatabase(db)
		logger.Info("Run history enabled", "driver", cfg.Database.Driver)
	}

	origins := cfg.Server.WebSocket.AllowedOrigins
	if len(origins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(origins) == 1 && origins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", origins)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	logger.Info("Shutting down server")
	srv.Shutdown()
	return <-errCh
}
