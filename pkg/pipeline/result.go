package pipeline

import (
	"time"

	"github.com/zen-systems/clipflow/pkg/unit"
)

// StageResult captures one stage's execution. Results are appended in
// execution order and never mutated afterwards.
type StageResult struct {
	UnitID     string
	UnitName   string
	Output     string
	Duration   time.Duration
	Provenance *unit.Provenance
}

// Result captures a successful pipeline run.
type Result struct {
	Output string
	Stages []StageResult
}

// TotalDuration is the sum of the stage durations. It is derived rather
// than stored so the invariant cannot drift.
func (r *Result) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range r.Stages {
		total += stage.Duration
	}
	return total
}
