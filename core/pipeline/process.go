package pipeline

import (
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/josephlewis42/sshell/core/jobs"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Process is the handle of one pipeline stage. A goroutine waits on the child
// and closes done; callers only observe the result through Wait or TryWait.
type Process struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status int
}

var _ jobs.Handle = (*Process)(nil)

// startProcess starts cmd and begins waiting on it in the background.
func startProcess(cmd *exec.Cmd) (*Process, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.status = exitStatus(cmd.Wait())
		close(p.done)
	}()
	return p, nil
}

// failedProcess is the handle of a stage that never started.
func failedProcess() *Process {
	p := &Process{done: make(chan struct{}), status: ExitFailure}
	close(p.done)
	return p
}

// Pid returns the child's process ID, or 0 if the stage never started.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Wait blocks until the stage terminates.
func (p *Process) Wait() int {
	<-p.done
	return p.status
}

// TryWait returns the status if the stage has terminated.
func (p *Process) TryWait() (int, bool) {
	select {
	case <-p.done:
		return p.status, true
	default:
		return 0, false
	}
}

// Terminate sends SIGTERM to a running stage.
func (p *Process) Terminate() error {
	if _, exited := p.TryWait(); exited || p.cmd == nil {
		return nil
	}
	return p.cmd.Process.Signal(unix.SIGTERM)
}

// Kill sends SIGKILL to a running stage.
func (p *Process) Kill() error {
	if _, exited := p.TryWait(); exited || p.cmd == nil {
		return nil
	}
	return p.cmd.Process.Signal(unix.SIGKILL)
}

// exitStatus maps the result of exec.Cmd.Wait to a shell status: the exit code
// for a normal exit and ExitFailure for anything abnormal.
func exitStatus(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return ExitFailure
}
