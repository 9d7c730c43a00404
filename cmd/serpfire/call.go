// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <operation>",
	Short: "Invoke one operation and print its result",
	Long: `Call runs a single operation without starting a server. Arguments are
given as a JSON object with --args, as repeated --arg key=value pairs, or both
(--arg wins). A value that parses as JSON is used as such, otherwise it is
taken as a string.

  serpfire call research --arg topic="redis streams" --arg maxSources=2
  serpfire call scrape --args '{"url":"https://go.dev","formats":["links"]}'

The exit status is non-zero when the result is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().String("args", "", "arguments as a JSON object")
	callCmd.Flags().StringArray("arg", nil, "one argument as key=value (repeatable)")
	callCmd.Flags().String("format", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	rawJSON, _ := cmd.Flags().GetString("args")
	pairs, _ := cmd.Flags().GetStringArray("arg")
	callArgs, err := parseCallArgs(rawJSON, pairs)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}

	env, err := reg.Invoke(cmd.Context(), args[0], callArgs)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := writeEnvelope(os.Stdout, env, format); err != nil {
		return err
	}
	if env.IsError {
		return fmt.Errorf("%s returned an error", args[0])
	}
	return nil
}

// parseCallArgs merges a JSON object with key=value pairs.
func parseCallArgs(rawJSON string, pairs []string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &out); err != nil {
			return nil, fmt.Errorf("parsing --args: %w", err)
		}
	}
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parsing --arg %q: want key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(val), &v); err != nil {
			v = val
		}
		out[key] = v
	}
	return out, nil
}
