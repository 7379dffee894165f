// Package main is the schemascope command. It serves the graph console API
// and inspects graph documents from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/schemascope/core/internal/handlers"
	"github.com/schemascope/core/internal/parser"
	"github.com/spf13/cobra"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

func inspectCmd() *cobra.Command {
	var asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "inspect [file...]",
		Short: "Validate graph documents and print their stats",
		Long: `Reads graph documents (bare {"nodes","edges"} objects or discovery
service envelopes), applies the same integrity rules as the console and
prints node and edge counts per type. Reads stdin when no file or "-" is
given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			out := cmd.OutOrStdout()
			dirty := 0
			for _, name := range args {
				result, err := inspectFile(name, cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				if result.Report.Dropped() > 0 {
					dirty++
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(result); err != nil {
						return fmt.Errorf("failed to encode result: %w", err)
					}
					continue
				}
				printResult(out, name, result)
			}
			if strict && dirty > 0 {
				return fmt.Errorf("%d document(s) contain invalid elements", dirty)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sanitized graph, stats and report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when elements had to be dropped")
	return cmd
}

func inspectFile(name string, stdin io.Reader) (handlers.InspectResult, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return handlers.InspectResult{}, fmt.Errorf("failed to read: %w", err)
	}

	graph, err := parser.ParseGraph(data)
	if err != nil {
		return handlers.InspectResult{}, err
	}
	return handlers.Inspect(*graph), nil
}

func printResult(w io.Writer, name string, r handlers.InspectResult) {
	brand.Fprintln(w, name)
	fmt.Fprintf(w, "  nodes %d  edges %d\n", r.Stats.TotalNodes, r.Stats.TotalEdges)
	if line := breakdown(r.Stats.NodeTypeBreakdown); line != "" {
		subtle.Fprintf(w, "  %s\n", line)
	}
	if line := breakdown(r.Stats.EdgeTypeBreakdown); line != "" {
		subtle.Fprintf(w, "  %s\n", line)
	}

	rep := r.Report
	if rep.Clean() {
		good.Fprintln(w, "  ✓ clean")
		return
	}
	if rep.Dropped() > 0 {
		bad.Fprintf(w, "  ✗ dropped %d element(s)\n", rep.Dropped())
	}
	for _, item := range []struct {
		label string
		ids   []string
	}{
		{"duplicate nodes", rep.DuplicateNodes},
		{"duplicate edges", rep.DuplicateEdges},
		{"dangling edges", rep.DanglingEdges},
		{"unknown node types", rep.UnknownNodeTypes},
		{"unknown edge types", rep.UnknownEdgeTypes},
	} {
		if len(item.ids) > 0 {
			warn.Fprintf(w, "  %s: %s\n", item.label, strings.Join(item.ids, ", "))
		}
	}
}

// breakdown renders a per-type count map in a stable order.
func breakdown[K ~string](counts map[K]int) string {
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return strings.Join(parts, " · ")
}
