// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available operations and their input schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		reg, err := newRegistry(cfg, logger)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return writeTools(os.Stdout, reg.List(), format)
	},
}

func init() {
	toolsCmd.Flags().String("format", formatTable, "output format: table, json or yaml")

	rootCmd.AddCommand(toolsCmd)
}
