package model

import "time"

// StageStatus represents the outcome of a pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// OutcomeKind classifies the result of a component call.
type OutcomeKind string

const (
	OutcomeOK       OutcomeKind = "ok"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeFatal    OutcomeKind = "fatal"
)

// Fallback reasons shared across components.
const (
	ReasonNoKey      = "no_key"
	ReasonTimeout    = "timeout"
	ReasonTransient  = "transient"
	ReasonHTTP       = "http"
	ReasonParse      = "parse"
	ReasonValidation = "validation"
	ReasonNoInput    = "no_input"
)

// Outcome is the explicit result record a component returns at its boundary.
// Fallback outcomes name why a locally computed default was used.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	Scope  string      `json:"scope,omitempty"`
	Err    error       `json:"-"`
}

// OK returns a successful outcome.
func OK() Outcome { return Outcome{Kind: OutcomeOK} }

// Fallback returns an outcome recording a default substitution.
func Fallback(scope, reason string, err error) Outcome {
	return Outcome{Kind: OutcomeFallback, Scope: scope, Reason: reason, Err: err}
}

// Fatal returns an outcome that must halt the stage.
func Fatal(scope string, err error) Outcome {
	return Outcome{Kind: OutcomeFatal, Scope: scope, Err: err}
}

// IsFallback reports whether a default was substituted.
func (o Outcome) IsFallback() bool { return o.Kind == OutcomeFallback }

// IsFatal reports whether the outcome must halt the stage.
func (o Outcome) IsFatal() bool { return o.Kind == OutcomeFatal }

// StageResult holds the outcome of one pipeline stage.
type StageResult struct {
	Number    int            `json:"number"`
	Name      string         `json:"name"`
	Status    StageStatus    `json:"status"`
	Duration  time.Duration  `json:"duration_ns"`
	Outputs   []string       `json:"outputs,omitempty"`
	Fallbacks []Outcome      `json:"fallbacks,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AddFallback records o when it is a fallback outcome.
func (r *StageResult) AddFallback(o Outcome) {
	if o.IsFallback() {
		r.Fallbacks = append(r.Fallbacks, o)
	}
}

// RunReport summarises an orchestrator run.
type RunReport struct {
	RunID  string        `json:"run_id"`
	Stages []StageResult `json:"stages"`
}

// Failed reports whether any stage failed or was skipped for missing input.
func (r *RunReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Status == StageStatusFailed || s.Status == StageStatusSkipped {
			return true
		}
	}
	return false
}
