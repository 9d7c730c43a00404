// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/serpfire/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the operations as MCP tools",
	Long: `Serve speaks JSON-RPC 2.0 (Model Context Protocol) on stdin/stdout, one
message per line. With --http it listens on the given address instead and
accepts messages as POST /mcp.

The Serper and Firecrawl keys are required; without a Context7 key the
documentation operations report "not configured".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("http", "", "listen address for the HTTP transport (e.g. :8080); stdio when empty")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}

	srv := mcpserver.New("serpfire", version, reg, logger.Named("mcp"))
	if addr, _ := cmd.Flags().GetString("http"); addr != "" {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	}

	// The client ends a stdio session by closing stdin.
	logger.Info("serving on stdio", zap.Int("tools", len(reg.List())))
	return srv.ServeStdio(cmd.Context(), os.Stdin, os.Stdout)
}
