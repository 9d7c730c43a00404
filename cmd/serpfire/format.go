// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/serpfire/internal/registry"
	"github.com/pdiddy/serpfire/pkg/types"
)

// Output formats accepted by --format.
const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// toolDoc is the serializable form of a registry.Descriptor.
type toolDoc struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"inputSchema" yaml:"input_schema"`
}

func toolDocs(ds []registry.Descriptor) ([]toolDoc, error) {
	docs := make([]toolDoc, 0, len(ds))
	for _, d := range ds {
		var schema map[string]any
		if err := json.Unmarshal(d.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("decoding schema for %s: %w", d.Name, err)
		}
		docs = append(docs, toolDoc{Name: d.Name, Description: d.Description, InputSchema: schema})
	}
	return docs, nil
}

// writeTools writes tool descriptors in the requested format.
func writeTools(w io.Writer, ds []registry.Descriptor, format string) error {
	switch format {
	case formatTable, formatText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDESCRIPTION")
		for _, d := range ds {
			fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
		}
		return tw.Flush()
	case formatJSON, formatYAML:
		docs, err := toolDocs(ds)
		if err != nil {
			return err
		}
		return encode(w, docs, format)
	}
	return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
}

// writeEnvelope writes a call result in the requested format.
func writeEnvelope(w io.Writer, env types.Envelope, format string) error {
	switch format {
	case formatText:
		_, err := fmt.Fprintln(w, env.Text())
		return err
	case formatJSON, formatYAML:
		return encode(w, env, format)
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func encode(w io.Writer, v any, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}
