package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "orderbot/internal/mcp"
)

var ssePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the bot as an MCP server (stdio, or SSE with --sse-port)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContextNoTimeout(cmd)
		defer stop()

		if ssePort != 0 {
			cfg.MCP.SSEPort = ssePort
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				logger.Warn("shutdown", zap.Error(cerr))
			}
		}()

		server, err := mcpserver.NewServer(cfg, mcpserver.Deps{
			Messenger: a.Engine,
			Invoices:  a.Invoices,
			Locators:  a.Locators,
			Ledger:    a.Ledger,
			Tracer:    a.Trace,
		}, logger.Named("mcp"))
		if err != nil {
			return err
		}

		var startErr error
		if cfg.MCP.SSEPort > 0 {
			logger.Info("starting MCP SSE server", zap.Int("port", cfg.MCP.SSEPort))
			startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
		} else {
			logger.Info("starting MCP stdio server")
			startErr = server.Start(ctx)
		}
		if startErr != nil && !errors.Is(startErr, context.Canceled) {
			return startErr
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&ssePort, "sse-port", 0, "SSE port (falls back to config; 0 means stdio)")
}
