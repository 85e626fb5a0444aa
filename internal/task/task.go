// Package task implements the ordered release pipeline: stages with lazy
// inclusion and skip predicates, and a strictly sequential executor that
// aborts on the first hard failure.
package task

import (
	"context"
)

// RunContext is the mutable record shared across stages within one run.
// It is owned by the executor for the run's lifetime and discarded at run
// end. Only the single active stage ever mutates it, so no locking.
type RunContext struct {
	// OTP is a one-time password produced by an early stage and consumed
	// by a later one.
	OTP string
	// NewVersion is the resolved version this run releases.
	NewVersion string

	// emit forwards a streamed output line to the active stage's reporter.
	// Set by the executor before each action runs.
	emit func(line string)
}

// Emit reports a line of live output for the active stage. Safe to call with
// no reporter wired.
func (rc *RunContext) Emit(line string) {
	if rc.emit != nil {
		rc.emit(line)
	}
}

// Stage is one step of the pipeline.
//
// Enabled and Skip are evaluated lazily, at execution time, because they may
// depend on state mutated by earlier stages or on live queries. A disabled
// stage is omitted from output entirely; a skipped stage is reported with
// its reason and its action never runs.
type Stage struct {
	Title string
	// Enabled gates the stage; nil means always enabled.
	Enabled func() bool
	// Skip returns a non-empty reason to skip the stage; nil never skips.
	Skip func(rc *RunContext) string
	// Action performs the stage's work.
	Action func(ctx context.Context, rc *RunContext) error
}

// Pipeline is an ordered sequence of stages, built once and never reordered.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Append adds stages at the end, preserving build order.
func (p *Pipeline) Append(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// AppendIf adds the stages only when include is true. Inclusion is decided
// once, at build time, distinct from a stage's own run-time predicates.
func (p *Pipeline) AppendIf(include bool, stages ...Stage) *Pipeline {
	if include {
		p.stages = append(p.stages, stages...)
	}
	return p
}

// Stages exposes the built sequence.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}
