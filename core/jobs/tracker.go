// Package jobs tracks the single background job.
package jobs

import (
	"time"

	"go.uber.org/zap"

	"github.com/josephlewis42/sshell/core/report"
	"github.com/josephlewis42/sshell/core/shell"
	"github.com/josephlewis42/sshell/errors"
)

// Handle is a started (or failed to start) stage of a pipeline.
type Handle interface {
	// TryWait returns the exit status and true if the stage has terminated,
	// it never blocks.
	TryWait() (status int, exited bool)
	// Wait blocks until the stage terminates and returns its exit status.
	Wait() int
	// Terminate asks the stage to stop.
	Terminate() error
	// Kill stops the stage without giving it a chance to refuse.
	Kill() error
}

// DefaultAbortGrace is how long Abort lets stages exit after Terminate
// before killing them.
const DefaultAbortGrace = time.Second

const abortPollInterval = 10 * time.Millisecond

// record is a background job and the state of each of its stages, in stage
// order.
type record struct {
	job      *shell.Job
	handles  []Handle
	statuses []int
	exited   []bool
}

func (r *record) done() bool {
	for _, exited := range r.exited {
		if !exited {
			return false
		}
	}
	return true
}

// Tracker owns at most one background job from registration until every one
// of its stages has terminated. It is not safe for concurrent use, the read
// loop is its only caller.
type Tracker struct {
	// AbortGrace bounds how long Abort waits between Terminate and Kill.
	AbortGrace time.Duration

	reporter *report.Reporter
	log      *zap.SugaredLogger

	active *record
}

// NewTracker creates an empty tracker that reports completions to reporter.
func NewTracker(reporter *report.Reporter, log *zap.SugaredLogger) *Tracker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Tracker{AbortGrace: DefaultAbortGrace, reporter: reporter, log: log}
}

// Active reports whether a background job is running.
func (t *Tracker) Active() bool {
	return t.active != nil
}

// Job returns the active background job or nil.
func (t *Tracker) Job() *shell.Job {
	if t.active == nil {
		return nil
	}
	return t.active.job
}

// Register hands ownership of a launched background job to the tracker.
func (t *Tracker) Register(job *shell.Job, handles []Handle) error {
	if t.active != nil {
		return errors.ErrBackgroundSlotOccupied
	}

	t.active = &record{
		job:      job,
		handles:  handles,
		statuses: make([]int, len(handles)),
		exited:   make([]bool, len(handles)),
	}
	t.log.Debugw("background job registered", "job", job.String(), "stages", len(handles))
	return nil
}

// Poll checks every unfinished stage of the background job without blocking.
// Once all of them have terminated the completion line is written and the
// slot is freed. It returns true if a job completed during this call.
func (t *Tracker) Poll() bool {
	if t.active == nil {
		return false
	}

	if !t.active.reap() {
		return false
	}

	t.finish()
	return true
}

// reap records the status of every stage that terminated since the last call
// and reports whether all of them have.
func (r *record) reap() bool {
	for i, h := range r.handles {
		if r.exited[i] {
			continue
		}
		if status, ok := h.TryWait(); ok {
			r.statuses[i] = status
			r.exited[i] = true
		}
	}
	return r.done()
}

// CheckExit polls once and fails if the background job is still running.
func (t *Tracker) CheckExit() error {
	t.Poll()
	if t.active != nil {
		return errors.ErrBackgroundJobStillRunning
	}
	return nil
}

// Drain blocks until the background job, if any, completes and reports it.
func (t *Tracker) Drain() {
	if t.active == nil {
		return
	}

	rec := t.active
	for i, h := range rec.handles {
		if !rec.exited[i] {
			rec.statuses[i] = h.Wait()
			rec.exited[i] = true
		}
	}
	t.finish()
}

// Abort terminates every unfinished stage of the background job, kills the
// ones still running after AbortGrace, then drains it.
func (t *Tracker) Abort() {
	if t.active == nil {
		return
	}

	rec := t.active
	t.signal(rec, "terminate", Handle.Terminate)

	deadline := time.Now().Add(t.AbortGrace)
	for !rec.reap() && time.Now().Before(deadline) {
		time.Sleep(abortPollInterval)
	}
	if !rec.done() {
		t.signal(rec, "kill", Handle.Kill)
	}

	t.Drain()
}

func (t *Tracker) signal(rec *record, name string, send func(Handle) error) {
	for i, h := range rec.handles {
		if rec.exited[i] {
			continue
		}
		if err := send(h); err != nil {
			t.log.Debugw(name+" failed", "stage", i, "error", err)
		}
	}
}

func (t *Tracker) finish() {
	rec := t.active
	t.active = nil

	t.log.Debugw("background job completed", "job", rec.job.String(), "statuses", rec.statuses)
	t.reporter.Completed(rec.job.ReportText(), rec.statuses)
}
