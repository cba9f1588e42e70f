package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/patternrank/internal/app"
	"github.com/dshills/patternrank/internal/mcp"
	"github.com/dshills/patternrank/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			log.Printf("patternrank MCP server v%s starting...", version)
			log.Printf("Build Mode: %s, Driver: %s, Vector Extension: %v",
				storage.BuildMode, storage.DriverName, storage.VectorExtensionAvailable)

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			server, err := mcp.NewServer(a)
			if err != nil {
				return err
			}

			// Set up graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Println("MCP server ready, listening on stdio...")
			if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
				return err
			}

			if errors.Is(ctx.Err(), context.Canceled) {
				log.Println("Received shutdown signal, stopping")
			}
			log.Println("Server stopped")
			return nil
		},
	}
}
