package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/shipit/internal/logfields"
)

// Reporter receives pipeline progress. Implementations must be cheap; they
// run inline with execution.
type Reporter interface {
	StageStarted(title string)
	StageLine(title, line string)
	StageSkipped(title, reason string)
	StageCompleted(title string, elapsed time.Duration)
}

// SlogReporter reports progress through the default structured logger.
type SlogReporter struct{}

func (SlogReporter) StageStarted(title string) {
	slog.Info("Stage started", logfields.Stage(title))
}

func (SlogReporter) StageLine(title, line string) {
	fmt.Println(line)
}

func (SlogReporter) StageSkipped(title, reason string) {
	slog.Info("Stage skipped", logfields.Stage(title), logfields.Reason(reason))
}

func (SlogReporter) StageCompleted(title string, elapsed time.Duration) {
	slog.Info("Stage completed", logfields.Stage(title), logfields.DurationMS(float64(elapsed.Milliseconds())))
}

// Executor runs a pipeline strictly in sequence. Stages never run
// concurrently with each other, so each stage observes the fully-settled
// state left by its predecessor.
type Executor struct {
	reporter Reporter
}

// NewExecutor creates an executor reporting through reporter; nil gets the
// slog reporter.
func NewExecutor(reporter Reporter) *Executor {
	if reporter == nil {
		reporter = SlogReporter{}
	}
	return &Executor{reporter: reporter}
}

// Run executes the pipeline. The first action failure aborts all remaining
// stages and is returned to the caller; later stages assume earlier ones
// succeeded, so there is no partial continuation. The RunContext is returned
// in both outcomes so callers can inspect what the run produced.
func (e *Executor) Run(ctx context.Context, p *Pipeline) (*RunContext, error) {
	rc := &RunContext{}

	for _, stage := range p.Stages() {
		if stage.Enabled != nil && !stage.Enabled() {
			continue // omitted entirely, not even shown as skipped
		}
		if stage.Skip != nil {
			if reason := stage.Skip(rc); reason != "" {
				e.reporter.StageSkipped(stage.Title, reason)
				continue
			}
		}

		e.reporter.StageStarted(stage.Title)
		title := stage.Title
		rc.emit = func(line string) { e.reporter.StageLine(title, line) }

		start := time.Now()
		err := stage.Action(ctx, rc)
		rc.emit = nil
		if err != nil {
			return rc, err
		}
		e.reporter.StageCompleted(stage.Title, time.Since(start))
	}

	return rc, nil
}
