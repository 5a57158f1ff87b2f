// Package pipeline chains text processing units into an ordered, fail-fast
// execution over a single input.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zen-systems/clipflow/pkg/unit"
)

// DefaultTimeout bounds a whole pipeline traversal. It encloses, and must
// exceed, the per-stage timeout of any remote unit.
const DefaultTimeout = 60 * time.Second

// Pipeline is an immutable ordered sequence of units plus execution policy.
// Build a fresh instance per invocation context.
type Pipeline struct {
	stages  []unit.Unit
	timeout time.Duration

	// failFast is the only supported mode: the first failing stage aborts
	// the run. A partial-success mode is an extension point, not
	// implemented here.
	failFast bool
}

// Option configures a pipeline.
type Option func(*Pipeline)

// WithTimeout sets the overall traversal timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// New creates a pipeline over the given stages. The stage slice is copied;
// later mutation of the argument does not affect the pipeline.
func New(stages []unit.Unit, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:   append([]unit.Unit(nil), stages...),
		timeout:  DefaultTimeout,
		failFast: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Execute runs every stage in order, feeding each stage's output to the
// next. It fails with a unit empty-input error for blank input, with
// ErrEmptyPipeline when there are no stages, with a *TimeoutError when the
// traversal exceeds the pipeline timeout, with ErrCancelled on external
// abort, and with a *StageError when any stage fails.
func (p *Pipeline) Execute(ctx context.Context, input string) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &unit.Error{Kind: unit.KindEmptyInput, Message: "input is empty"}
	}
	if len(p.stages) == 0 {
		return nil, ErrEmptyPipeline
	}

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := p.run(runCtx, input)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		// run reports aborts as bare context errors; translate them
		// against the caller's context, which the pipeline deadline
		// never touches.
		if out.err == context.Canceled || out.err == context.DeadlineExceeded {
			return nil, p.abortError(ctx)
		}
		return out.res, out.err
	case <-runCtx.Done():
		// The deferred cancel tears down any in-flight stage; its
		// partial work is discarded.
		return nil, p.abortError(ctx)
	}
}

// run traverses the stages strictly in order. Cancellation is checked
// before each stage so an abort never waits on another network round-trip.
func (p *Pipeline) run(ctx context.Context, input string) (*Result, error) {
	text := input
	stages := make([]StageResult, 0, len(p.stages))

	for i, u := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		output, err := u.Transform(ctx, text)
		if err != nil {
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return nil, ctx.Err()
			}
			return nil, &StageError{Index: i, UnitID: u.ID(), Err: err}
		}

		result := StageResult{
			UnitID:   u.ID(),
			UnitName: u.Name(),
			Output:   output,
			Duration: time.Since(start),
		}
		if prov, ok := u.(unit.Provenancer); ok {
			meta := prov.Provenance()
			result.Provenance = &meta
		}
		stages = append(stages, result)
		text = output
	}

	return &Result{Output: text, Stages: stages}, nil
}

// abortError distinguishes an expired pipeline timeout from an external
// cancellation. parent is the caller's context, untouched by the pipeline
// deadline.
func (p *Pipeline) abortError(parent context.Context) error {
	if parent.Err() != nil {
		return ErrCancelled
	}
	return &TimeoutError{Seconds: int(p.timeout.Seconds())}
}
