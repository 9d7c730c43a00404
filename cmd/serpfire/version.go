package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/serpfire/internal/mcpserver"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of serpfire",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("serpfire %s (MCP %s)\n", version, mcpserver.ProtocolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
