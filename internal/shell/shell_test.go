package shell

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ex *Execution) []string {
	var lines []string
	for line := range ex.Lines {
		lines = append(lines, line)
	}
	return lines
}

func TestRunStreamsLinesThenResult(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "sh", "-c", "echo one; echo two; echo three")

	lines := collect(ex)
	res := ex.Wait()

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
	assert.Equal(t, "one\ntwo\nthree\n", res.Stdout)
}

func TestRunInterleavesStderr(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")

	lines := collect(ex)
	res := ex.Wait()

	require.NoError(t, res.Err)
	assert.ElementsMatch(t, []string{"out", "err"}, lines)
	// stderr must not leak into the stdout accumulation
	assert.Equal(t, "out\n", res.Stdout)
}

func TestRunDropsEmptyLines(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "sh", "-c", "echo a; echo; echo '   '; echo b")

	lines := collect(ex)
	require.NoError(t, ex.Wait().Err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestRunFailureCarriesStderrAndExitCode(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "sh", "-c", "echo boom 1>&2; exit 3")

	collect(ex)
	res := ex.Wait()

	require.Error(t, res.Err)
	var exitErr *ExitError
	require.True(t, errors.As(res.Err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "boom\n", exitErr.Stderr)
	assert.Contains(t, exitErr.Error(), "status 3")
}

func TestWaitWithoutConsumingLinesDoesNotDeadlock(t *testing.T) {
	r := &Runner{}
	// More lines than the channel buffer: Wait must drain, not deadlock.
	ex := r.Run(context.Background(), "sh", "-c", "seq 1 500")

	res := ex.Wait()
	require.NoError(t, res.Err)
	assert.Equal(t, 500, strings.Count(res.Stdout, "\n"))
}

func TestResultAfterLastLine(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "sh", "-c", "seq 1 50")

	count := 0
	for range ex.Lines {
		count++
	}
	// Lines has closed; Wait must now settle without any further delivery.
	res := ex.Wait()
	require.NoError(t, res.Err)
	assert.Equal(t, 50, count, "every line must be observable before Wait returns")
}

func TestOverlongLineStillSettles(t *testing.T) {
	r := &Runner{}
	// A single line over the scanner cap must not leave the child blocked
	// on a full pipe with Wait hanging forever.
	ex := r.Run(context.Background(), "sh", "-c",
		`head -c 2097152 /dev/zero | tr '\0' a; echo; echo tail-line`)

	done := make(chan Result, 1)
	go func() {
		collect(ex)
		done <- ex.Wait()
	}()

	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stdout, "tail-line", "output after the over-long line must keep flowing")
	case <-time.After(10 * time.Second):
		t.Fatal("Wait did not settle after an over-long output line")
	}
}

func TestSpawnFailureReportedThroughExecution(t *testing.T) {
	r := &Runner{}
	ex := r.Run(context.Background(), "definitely-not-a-real-binary-shipit")

	lines := collect(ex)
	res := ex.Wait()

	assert.Empty(t, lines)
	require.Error(t, res.Err)
	assert.True(t, strings.Contains(res.Err.Error(), "start"))
}

func TestRunnerDirScopesInvocation(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Dir: dir}
	ex := r.Run(context.Background(), "pwd")

	lines := collect(ex)
	require.NoError(t, ex.Wait().Err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], dir)
}
