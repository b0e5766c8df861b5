package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/pipeline"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List stages with the artifacts they read and write",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := &pipeline.Deps{Config: cfg, Store: artifact.NewStore(cfg.Data.Root)}
		printStages(os.Stdout, deps)
		return nil
	},
}

func printStages(w io.Writer, deps *pipeline.Deps) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Stage", "Description", "Reads", "Writes", "Ready"})
	for _, s := range pipeline.Stages() {
		reads := s.Inputs(deps)
		for _, rel := range s.Optional {
			reads = append(reads, rel+" (optional)")
		}
		ready := "yes"
		if missing := s.Missing(deps); len(missing) > 0 {
			ready = "missing " + strings.Join(missing, ", ")
		}
		t.AppendRow(table.Row{
			s.Number,
			s.Name,
			s.Title,
			orDash(strings.Join(reads, "\n")),
			strings.Join(s.Outputs, "\n"),
			ready,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
