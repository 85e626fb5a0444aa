// Package shell adapts one external process invocation into a live stream of
// output lines plus a terminal result. Lines from stdout and stderr are
// interleaved in arrival order and delivered as soon as they are read; the
// result is delivered strictly after the line stream has closed, so a
// consumer that has observed Wait returning has observed all output.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Result is the terminal outcome of one invocation.
type Result struct {
	// Stdout is the accumulated standard output, available on success and
	// failure alike. Stages parse it when they need the process's answer
	// (e.g. the bumped version printed by the package manager).
	Stdout string
	// Err is nil on success. On failure it is an *ExitError when the
	// process ran and exited non-zero, or the spawn error otherwise.
	Err error
}

// ExitError carries the captured standard error text and exit status so a
// stage can pattern-match known sub-failures and remap them.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Execution is one running process. Consume Lines (it closes when output is
// exhausted), then call Wait for the result. Wait discards any lines not yet
// consumed, so a caller that does not care about progress can Wait directly;
// do not call Wait concurrently with a Lines consumer.
type Execution struct {
	// Lines delivers the non-empty output lines, stdout and stderr
	// interleaved in arrival order.
	Lines <-chan string

	done   chan struct{}
	result Result
}

// Wait blocks until the process has exited and the line stream has closed,
// then returns the terminal result.
func (e *Execution) Wait() Result {
	for range e.Lines {
		// discard unconsumed output; the accumulators keep the full text
	}
	<-e.done
	return e.result
}

// Runner spawns external commands. The zero value is usable; Dir scopes all
// invocations to a working directory.
type Runner struct {
	Dir string
}

// Run starts name with args and returns the live execution. A spawn failure
// is reported through the returned execution, not synchronously, so callers
// have a single consumption path.
func (r *Runner) Run(ctx context.Context, name string, args ...string) *Execution {
	lines := make(chan string, 64)
	ex := &Execution{Lines: lines, done: make(chan struct{})}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		ex.finish(lines, Result{Err: fmt.Errorf("stdout pipe: %w", err)})
		return ex
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		ex.finish(lines, Result{Err: fmt.Errorf("stderr pipe: %w", err)})
		return ex
	}

	if err := cmd.Start(); err != nil {
		ex.finish(lines, Result{Err: fmt.Errorf("start %s: %w", name, err)})
		return ex
	}

	var outBuf, errBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go scanInto(stdout, &outBuf, lines, &wg)
	go scanInto(stderr, &errBuf, lines, &wg)

	go func() {
		// Both pipes must be fully drained before cmd.Wait, and the line
		// channel must close before the result is published.
		wg.Wait()
		close(lines)

		waitErr := cmd.Wait()
		res := Result{Stdout: outBuf.String()}
		if waitErr != nil {
			res.Err = &ExitError{
				Command:  strings.TrimSpace(name + " " + strings.Join(args, " ")),
				ExitCode: exitCode(waitErr),
				Stderr:   errBuf.String(),
			}
		}
		ex.result = res
		close(ex.done)
	}()

	return ex
}

// finish reports a pre-start failure while preserving the ordering contract.
func (e *Execution) finish(lines chan string, res Result) {
	close(lines)
	e.result = res
	close(e.done)
}

// scanInto copies r line by line into both the accumulator and the shared
// line channel, dropping empty lines from the stream.
func scanInto(r io.Reader, acc *strings.Builder, lines chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		acc.WriteString(line)
		acc.WriteString("\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines <- line
	}
	if scanner.Err() != nil {
		// A line over the scanner cap stops the scan with the pipe still
		// open; the child would block on a full pipe and never exit. Keep
		// draining into the accumulator so the result can settle.
		_, _ = io.Copy(acc, r)
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
