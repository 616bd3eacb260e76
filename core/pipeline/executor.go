// Package pipeline launches parsed jobs as connected child processes.
package pipeline

import (
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/josephlewis42/sshell/core/jobs"
	"github.com/josephlewis42/sshell/core/report"
	"github.com/josephlewis42/sshell/core/shell"
	"github.com/josephlewis42/sshell/errors"
)

// OutputFileMode is the permission of files created by ">".
const OutputFileMode = 0644

// Executor runs jobs: builtins in-process, everything else as one child per
// stage.
type Executor struct {
	Stdio    *Stdio
	Tracker  *jobs.Tracker
	Reporter *report.Reporter
	Builtins map[string]Builtin

	log      *zap.SugaredLogger
	lookPath func(file string) (string, error)
}

// NewExecutor creates an executor with no builtins.
func NewExecutor(stdio *Stdio, tracker *jobs.Tracker, reporter *report.Reporter, log *zap.SugaredLogger) *Executor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Executor{
		Stdio:    stdio,
		Tracker:  tracker,
		Reporter: reporter,
		Builtins: make(map[string]Builtin),
		log:      log,
		lookPath: exec.LookPath,
	}
}

// Pipeline is a launched job, one process handle per stage in stage order.
type Pipeline struct {
	Job   *shell.Job
	Procs []*Process
}

// Wait blocks until every stage terminates, in stage order, and returns the
// statuses.
func (p *Pipeline) Wait() []int {
	statuses := make([]int, len(p.Procs))
	for i, proc := range p.Procs {
		statuses[i] = proc.Wait()
	}
	return statuses
}

// Handles returns the process handles as tracker handles.
func (p *Pipeline) Handles() []jobs.Handle {
	handles := make([]jobs.Handle, len(p.Procs))
	for i, proc := range p.Procs {
		handles[i] = proc
	}
	return handles
}

// Run executes job. Foreground jobs block until every stage exits and emit a
// completion line; background jobs are handed to the tracker. Errors returned
// are policy or resource errors, no process is left running when one is
// returned except the job already owned by the tracker.
func (e *Executor) Run(job *shell.Job) error {
	builtin, err := e.builtinFor(job)
	if err != nil {
		return err
	}
	if builtin != nil {
		e.runBuiltin(job, builtin)
		return nil
	}

	if job.Background && e.Tracker.Active() {
		return errors.ErrBackgroundSlotOccupied
	}

	p, err := e.Launch(job)
	if err != nil {
		return err
	}

	if !job.Background {
		e.Reporter.Completed(job.ReportText(), p.Wait())
		return nil
	}

	return e.adopt(p)
}

// adopt hands a launched background pipeline to the tracker. If the slot has
// been taken in the meantime the stages are stopped and reported as failed.
func (e *Executor) adopt(p *Pipeline) error {
	if err := e.Tracker.Register(p.Job, p.Handles()); err != nil {
		for _, proc := range p.Procs {
			_ = proc.Terminate()
		}
		e.Reporter.Completed(p.Job.ReportText(), p.Wait())
		return err
	}
	return nil
}

// builtinFor returns the builtin to run for job, or nil for an external
// program. A builtin anywhere in a pipeline or background job is an error.
func (e *Executor) builtinFor(job *shell.Job) (Builtin, error) {
	for _, stage := range job.Stages {
		builtin, ok := e.Builtins[stage.Name()]
		if !ok {
			continue
		}
		switch {
		case job.Background:
			return nil, errors.ErrBuiltinBackground
		case len(job.Stages) > 1:
			return nil, errors.ErrBuiltinPipeline
		default:
			return builtin, nil
		}
	}
	return nil, nil
}

func (e *Executor) runBuiltin(job *shell.Job, builtin Builtin) {
	stage := job.Stages[0]
	stdio := *e.Stdio

	var fds fdSet
	defer e.release(&fds)

	if stage.Input != "" {
		f, err := os.Open(stage.Input)
		if err != nil {
			e.Reporter.Error(errors.ErrCannotOpenInput)
			e.Reporter.Completed(job.ReportText(), []int{ExitFailure})
			return
		}
		fds.add(f)
		stdio.In = f
	}
	if stage.Output != "" {
		f, err := openOutput(stage.Output)
		if err != nil {
			e.Reporter.Error(errors.ErrCannotOpenOutput)
			e.Reporter.Completed(job.ReportText(), []int{ExitFailure})
			return
		}
		fds.add(f)
		stdio.Out = f
	}

	e.log.Debugw("running builtin", "args", stage.Args)
	status := builtin.Main(&stdio, stage.Args)
	e.Reporter.Completed(job.ReportText(), []int{status})
}

// Launch starts every stage of job, connected by pipes. Stages that fail
// locally (a redirect that can't be opened, a program that can't be found)
// get an already terminated handle with status 1 and their siblings still
// run. Only failing to create the pipes aborts the launch, before any
// process exists.
func (e *Executor) Launch(job *shell.Job) (*Pipeline, error) {
	var fds fdSet
	// Children hold their own copies once started; the parent's ends are
	// closed on every path so readers see end of stream.
	defer e.release(&fds)

	pipes, err := openPipes(len(job.Stages)-1, &fds)
	if err != nil {
		return nil, errors.ErrPipeFailed.WithDetail(err.Error())
	}

	p := &Pipeline{Job: job}
	for i := range job.Stages {
		p.Procs = append(p.Procs, e.startStage(job, i, pipes))
	}
	return p, nil
}

func (e *Executor) startStage(job *shell.Job, i int, pipes []pipePair) *Process {
	stage := job.Stages[i]
	last := len(job.Stages) - 1

	var fds fdSet
	defer e.release(&fds)

	cmd := &exec.Cmd{
		Args:   stage.Args,
		Stderr: e.Stdio.Err,
	}

	switch {
	case i > 0:
		cmd.Stdin = pipes[i-1].r
	case stage.Input != "":
		f, err := os.Open(stage.Input)
		if err != nil {
			return e.stageFailed(stage, errors.ErrCannotOpenInput, err)
		}
		fds.add(f)
		cmd.Stdin = f
	default:
		cmd.Stdin = e.Stdio.In
	}

	switch {
	case i < last:
		cmd.Stdout = pipes[i].w
	case stage.Output != "":
		f, err := openOutput(stage.Output)
		if err != nil {
			return e.stageFailed(stage, errors.ErrCannotOpenOutput, err)
		}
		fds.add(f)
		cmd.Stdout = f
	default:
		cmd.Stdout = e.Stdio.Out
	}

	path, err := e.lookPath(stage.Name())
	if err != nil {
		return e.stageFailed(stage, errors.ErrCommandNotFound, err)
	}
	cmd.Path = path

	proc, err := startProcess(cmd)
	if err != nil {
		return e.stageFailed(stage, errors.ErrCommandNotFound, err)
	}

	e.log.Debugw("stage started", "stage", i, "args", stage.Args, "pid", proc.Pid())
	return proc
}

func (e *Executor) stageFailed(stage shell.Stage, reported *errors.CommandError, cause error) *Process {
	e.log.Debugw("stage failed", "args", stage.Args, "error", cause)
	e.Reporter.Error(reported)
	return failedProcess()
}

// release closes every descriptor in fds. Failures are logged, the job has
// already been started or abandoned by then.
func (e *Executor) release(fds *fdSet) {
	if err := fds.Close(); err != nil {
		e.log.Warnw("closing descriptors", "error", err)
	}
}

func openOutput(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, OutputFileMode)
}
