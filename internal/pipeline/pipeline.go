package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
)

// Orchestrator runs a selection of stages in ascending order and stops at
// the first stage that is skipped or fails.
type Orchestrator struct {
	deps   *Deps
	stages []Stage
}

// New creates an Orchestrator over the standard stage registry.
func New(d *Deps) *Orchestrator {
	return &Orchestrator{deps: d, stages: Stages()}
}

// Run executes the selected stages. The report lists every stage that was
// attempted; report.Failed() is true when the run halted early.
func (o *Orchestrator) Run(ctx context.Context, selected []int) *model.RunReport {
	report := &model.RunReport{RunID: uuid.New().String()}
	base := zap.L().With(zap.String("run_id", report.RunID))
	base.Info("pipeline: run started", zap.Ints("stages", selected))
	if !llm.Enabled(o.deps.LLM) {
		base.Warn("pipeline: no model configured, generated content will use defaults")
	}

	trackStage := func(stage Stage) model.StageResult {
		res := model.StageResult{Number: stage.Number, Name: stage.Name}
		log := base.Named(stage.Name)

		if missing := stage.Missing(o.deps); len(missing) > 0 {
			res.Status = model.StageStatusSkipped
			res.Error = "missing input: " + strings.Join(missing, ", ")
			log.Error("pipeline: stage skipped, inputs missing",
				zap.Int("stage", stage.Number),
				zap.Strings("missing", missing),
			)
			return res
		}

		// Components log through the global logger; route them through the
		// stage's named logger for the duration of the stage.
		restore := zap.ReplaceGlobals(log)
		start := time.Now()
		err := stage.Run(ctx, o.deps, &res)
		res.Duration = time.Since(start)
		restore()

		if err != nil {
			res.Status = model.StageStatusFailed
			res.Error = err.Error()
			log.Error("pipeline: stage failed",
				zap.Int("stage", stage.Number),
				zap.Duration("duration", res.Duration),
				zap.Error(err),
			)
			log.Debug("pipeline: stage failure detail", zap.String("trace", eris.ToString(err, true)))
			return res
		}

		res.Status = model.StageStatusComplete
		log.Info("pipeline: stage complete",
			zap.Int("stage", stage.Number),
			zap.Duration("duration", res.Duration),
			zap.Int("fallbacks", len(res.Fallbacks)),
			zap.Strings("outputs", res.Outputs),
		)
		return res
	}

	for _, n := range selected {
		if n < 1 || n > len(o.stages) {
			report.Stages = append(report.Stages, model.StageResult{
				Number: n, Status: model.StageStatusFailed, Error: "unknown stage",
			})
			break
		}
		if err := ctx.Err(); err != nil {
			report.Stages = append(report.Stages, model.StageResult{
				Number: n, Name: o.stages[n-1].Name, Status: model.StageStatusFailed, Error: err.Error(),
			})
			break
		}
		res := trackStage(o.stages[n-1])
		report.Stages = append(report.Stages, res)
		if res.Status != model.StageStatusComplete {
			base.Error("pipeline: halting run", zap.Int("stage", n))
			break
		}
	}

	base.Info("pipeline: run finished",
		zap.Int("stages_run", len(report.Stages)),
		zap.Bool("failed", report.Failed()),
	)
	return report
}
