package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/josephlewis42/sshell/core/jobs"
	"github.com/josephlewis42/sshell/core/report"
	"github.com/josephlewis42/sshell/core/shell"
	"github.com/josephlewis42/sshell/errors"
)

// lockedBuffer is written to by the copying goroutines of os/exec and read by
// the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testExecutor struct {
	*Executor
	stdout *lockedBuffer
	stderr *lockedBuffer
	parser *shell.Parser
}

func newTestExecutor(t *testing.T) *testExecutor {
	t.Helper()

	stdout := &lockedBuffer{}
	stderr := &lockedBuffer{}
	reporter := report.New(stderr)
	tracker := jobs.NewTracker(reporter, nil)
	exec := NewExecutor(&Stdio{Out: stdout, Err: stderr}, tracker, reporter, nil)

	// Temp dir paths are longer than the default token limit.
	limits := shell.DefaultLimits()
	limits.MaxTokenLength = 4096
	limits.MaxLineLength = 8192

	return &testExecutor{
		Executor: exec,
		stdout:   stdout,
		stderr:   stderr,
		parser:   shell.NewParser(limits),
	}
}

func (te *testExecutor) run(t *testing.T, line string) error {
	t.Helper()
	job, err := te.parser.Parse(line)
	require.NoError(t, err)
	require.NotNil(t, job)
	return te.Run(job)
}

func TestRunForeground(t *testing.T) {
	cases := map[string]struct {
		line   string
		stdout string
		stderr string
	}{
		"single": {
			line:   "echo hi",
			stdout: "hi\n",
			stderr: "+ completed 'echo hi' [0]\n",
		},
		"exit-status": {
			line:   "false",
			stderr: "+ completed 'false' [1]\n",
		},
		"three-stages": {
			line:   "printf hello | tr a-z A-Z | tr L l",
			stdout: "HEllO",
			stderr: "+ completed 'printf hello | tr a-z A-Z | tr L l' [0] [0] [0]\n",
		},
		"eof-through-pipes": {
			line:   "echo abc | cat | cat | cat",
			stdout: "abc\n",
			stderr: "+ completed 'echo abc | cat | cat | cat' [0] [0] [0] [0]\n",
		},
		"command-not-found": {
			line:   "definitely-not-a-command-xyz",
			stderr: "Error: command not found\n+ completed 'definitely-not-a-command-xyz' [1]\n",
		},
		"failed-stage-siblings-run": {
			line:   "definitely-not-a-command-xyz | echo after",
			stdout: "after\n",
			stderr: "Error: command not found\n+ completed 'definitely-not-a-command-xyz | echo after' [1] [0]\n",
		},
		"cannot-open-input": {
			line:   "cat < /nonexistent/dir/input.txt",
			stderr: "Error: cannot open input file\n+ completed 'cat < /nonexistent/dir/input.txt' [1]\n",
		},
		"cannot-open-output": {
			line:   "echo hi > /nonexistent/dir/output.txt",
			stderr: "Error: cannot open output file\n+ completed 'echo hi > /nonexistent/dir/output.txt' [1]\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			te := newTestExecutor(t)
			require.NoError(t, te.run(t, tc.line))
			assert.Equal(t, tc.stdout, te.stdout.String())
			assert.Equal(t, tc.stderr, te.stderr.String())
		})
	}
}

func TestRedirectRoundTrip(t *testing.T) {
	te := newTestExecutor(t)
	out := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, te.run(t, "echo hi > "+out))
	assert.Empty(t, te.stdout.String())

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(contents))

	require.NoError(t, te.run(t, "cat < "+out))
	assert.Equal(t, "hi\n", te.stdout.String())
}

func TestRedirectTruncates(t *testing.T) {
	te := newTestExecutor(t)
	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("a much longer previous content\n"), 0600))

	require.NoError(t, te.run(t, "cat < "+out+" | tr a-z A-Z | head -c 3 > "+out+".new"))
	require.NoError(t, te.run(t, "echo x > "+out))

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(contents))

	upper, err := os.ReadFile(out + ".new")
	require.NoError(t, err)
	assert.Equal(t, "A M", string(upper))
}

func TestRunBackground(t *testing.T) {
	te := newTestExecutor(t)

	require.NoError(t, te.run(t, "sleep 0.2 &"))
	assert.True(t, te.Tracker.Active())

	// Nothing is reported synchronously.
	assert.Empty(t, te.stderr.String())

	assert.Eventually(t, te.Tracker.Poll, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "+ completed 'sleep 0.2 &' [0]\n", te.stderr.String())
	assert.False(t, te.Tracker.Active())
}

func TestRunSecondBackgroundRejected(t *testing.T) {
	te := newTestExecutor(t)
	marker := filepath.Join(t.TempDir(), "marker")

	require.NoError(t, te.run(t, "sleep 0.3 &"))

	err := te.run(t, "touch "+marker+" &")
	assert.True(t, errors.Is(err, errors.ErrBackgroundSlotOccupied))
	assert.NoFileExists(t, marker, "rejected job must not start")

	// Foreground jobs still run while the slot is taken.
	require.NoError(t, te.run(t, "true"))

	assert.Eventually(t, te.Tracker.Poll, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "+ completed 'true' [0]\n+ completed 'sleep 0.3 &' [0]\n", te.stderr.String())
}

func TestRunBuiltins(t *testing.T) {
	te := newTestExecutor(t)
	var calls [][]string
	te.Builtins["pwd"] = BuiltinFunc(func(stdio *Stdio, args []string) int {
		calls = append(calls, args)
		stdio.Out.Write([]byte("/here\n"))
		return 0
	})

	t.Run("pipeline", func(t *testing.T) {
		err := te.run(t, "echo x | pwd")
		assert.True(t, errors.Is(err, errors.ErrBuiltinPipeline))
	})

	t.Run("background", func(t *testing.T) {
		err := te.run(t, "pwd &")
		assert.True(t, errors.Is(err, errors.ErrBuiltinBackground))
		assert.False(t, te.Tracker.Active())
	})

	t.Run("single", func(t *testing.T) {
		require.NoError(t, te.run(t, "pwd"))
		assert.Equal(t, "/here\n", te.stdout.String())
	})

	t.Run("redirected", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "pwd.txt")
		require.NoError(t, te.run(t, "pwd > "+out))

		contents, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "/here\n", string(contents))
	})

	assert.Equal(t, [][]string{{"pwd"}, {"pwd"}}, calls)
	assert.Contains(t, te.stderr.String(), "+ completed 'pwd' [0]\n")
}

func TestLaunchTerminate(t *testing.T) {
	te := newTestExecutor(t)
	job, err := te.parser.Parse("sleep 30")
	require.NoError(t, err)

	p, err := te.Launch(job)
	require.NoError(t, err)
	require.Len(t, p.Procs, 1)
	assert.NotZero(t, p.Procs[0].Pid())

	_, exited := p.Procs[0].TryWait()
	assert.False(t, exited)

	require.NoError(t, p.Procs[0].Terminate())
	assert.Equal(t, []int{ExitFailure}, p.Wait())

	// Terminating an exited process is a no-op.
	assert.NoError(t, p.Procs[0].Terminate())
}

func TestLaunchKill(t *testing.T) {
	te := newTestExecutor(t)
	job, err := te.parser.Parse("sleep 30")
	require.NoError(t, err)

	p, err := te.Launch(job)
	require.NoError(t, err)

	require.NoError(t, p.Procs[0].Kill())
	assert.Equal(t, []int{ExitFailure}, p.Wait())
	assert.NoError(t, p.Procs[0].Kill())
}

func TestAdoptWhenSlotTaken(t *testing.T) {
	te := newTestExecutor(t)

	job, err := te.parser.Parse("sleep 30 &")
	require.NoError(t, err)
	p, err := te.Launch(job)
	require.NoError(t, err)

	// Another job claims the slot between the check in Run and registration.
	other, err := te.parser.Parse("sleep 1 &")
	require.NoError(t, err)
	require.NoError(t, te.Tracker.Register(other, []jobs.Handle{failedProcess()}))

	start := time.Now()
	err = te.adopt(p)
	assert.True(t, errors.Is(err, errors.ErrBackgroundSlotOccupied))
	assert.Less(t, time.Since(start), 10*time.Second)

	for _, proc := range p.Procs {
		_, exited := proc.TryWait()
		assert.True(t, exited)
	}
	assert.Equal(t, "+ completed 'sleep 30 &' [1]\n", te.stderr.String())
	assert.Equal(t, other, te.Tracker.Job())
}

type failingCloser struct{}

func (failingCloser) Close() error {
	return os.ErrClosed
}

func TestReleaseLogsCloseErrors(t *testing.T) {
	te := newTestExecutor(t)
	core, logs := observer.New(zapcore.WarnLevel)
	te.log = zap.New(core).Sugar()

	var fds fdSet
	fds.add(failingCloser{})
	fds.add(failingCloser{})
	te.release(&fds)

	entries := logs.FilterMessage("closing descriptors").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "file already closed")
	assert.Empty(t, fds)

	// Nothing to close, nothing logged.
	te.release(&fds)
	assert.Equal(t, 1, logs.Len())
}

func TestFailedProcess(t *testing.T) {
	p := failedProcess()
	status, exited := p.TryWait()
	assert.True(t, exited)
	assert.Equal(t, ExitFailure, status)
	assert.Equal(t, 0, p.Pid())
	assert.NoError(t, p.Terminate())
	assert.NoError(t, p.Kill())
}

func TestFdSetClose(t *testing.T) {
	var fds fdSet
	pipes, err := openPipes(2, &fds)
	require.NoError(t, err)
	require.Len(t, pipes, 2)
	assert.Len(t, fds, 4)

	// Closing a member early surfaces as an aggregated error.
	require.NoError(t, pipes[0].r.Close())
	assert.Error(t, fds.Close())

	assert.Empty(t, fds)
	assert.NoError(t, fds.Close())
}
