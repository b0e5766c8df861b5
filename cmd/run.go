package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/pipeline"
)

var (
	runAll      bool
	runStep     [pipeline.StageCount]bool
	runFromStep int
	runSteps    string
	runBBBURL   string
	runMapsURL  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run pipeline stages",
	Long:  "Runs the selected stages in ascending order. Selection flags combine; the run stops at the first stage that fails or lacks its inputs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := pipeline.Selection{All: runAll, FromStep: runFromStep, Steps: runSteps}
		for i, on := range runStep {
			if on {
				sel.Single = append(sel.Single, i+1)
			}
		}
		stages, err := sel.Resolve()
		if err != nil {
			return err
		}

		deps := pipeline.NewDeps(cfg, runBBBURL, runMapsURL)
		report := pipeline.New(deps).Run(cmd.Context(), stages)
		printReport(os.Stdout, report)

		if report.Failed() {
			last := report.Stages[len(report.Stages)-1]
			return eris.Errorf("stage %d (%s) %s: %s", last.Number, last.Name, last.Status, last.Error)
		}
		zap.L().Info("pipeline complete", zap.String("run_id", report.RunID))
		return nil
	},
}

func printReport(w io.Writer, report *model.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("run " + report.RunID)
	t.AppendHeader(table.Row{"#", "Stage", "Status", "Duration", "Fallbacks", "Detail"})
	for _, s := range report.Stages {
		t.AppendRow(table.Row{
			s.Number,
			s.Name,
			s.Status,
			s.Duration.Round(time.Millisecond),
			len(s.Fallbacks),
			detail(s),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func detail(s model.StageResult) string {
	if s.Error != "" {
		return s.Error
	}
	if len(s.Fallbacks) == 0 {
		return ""
	}
	reasons := map[string]int{}
	var order []string
	for _, f := range s.Fallbacks {
		if reasons[f.Reason] == 0 {
			order = append(order, f.Reason)
		}
		reasons[f.Reason]++
	}
	out := ""
	for i, r := range order {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s x%d", r, reasons[r])
	}
	return out
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runAll, "all", false, "run all stages")
	for i := range runStep {
		f.BoolVar(&runStep[i], fmt.Sprintf("step%d", i+1), false, fmt.Sprintf("run stage %d", i+1))
	}
	f.IntVar(&runFromStep, "from-step", 0, "run stages N through 9")
	f.StringVar(&runSteps, "steps", "", "comma-separated stage numbers, e.g. 5,6,7")
	f.StringVar(&runBBBURL, "bbb-url", "", "BBB business profile URL (stage 1)")
	f.StringVar(&runMapsURL, "maps-url", "", "Google Maps URL of the business (stage 2)")
	rootCmd.AddCommand(runCmd)
}
