package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyPipeline is returned when Execute is called with zero stages.
var ErrEmptyPipeline = errors.New("pipeline has no stages")

// ErrCancelled is returned when the caller aborts a run in flight.
var ErrCancelled = errors.New("pipeline cancelled")

// StageError wraps the failure of a single stage, recording where it
// happened. The underlying unit error is preserved unmodified.
type StageError struct {
	Index  int
	UnitID string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Index, e.UnitID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the whole traversal exceeds the pipeline
// timeout. Seconds is the configured timeout truncated to whole seconds.
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pipeline timed out after %ds", e.Seconds)
}
