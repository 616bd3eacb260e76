package commands

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/abiosoft/readline"
	"go.uber.org/zap"

	"github.com/josephlewis42/sshell/core/config"
	"github.com/josephlewis42/sshell/core/jobs"
	"github.com/josephlewis42/sshell/core/logger"
	"github.com/josephlewis42/sshell/core/pipeline"
	"github.com/josephlewis42/sshell/core/report"
	"github.com/josephlewis42/sshell/core/shell"
	"github.com/josephlewis42/sshell/errors"
)

type Shell struct {
	Reader   LineReader
	Parser   *shell.Parser
	Executor *pipeline.Executor
	Tracker  *jobs.Tracker
	Reporter *report.Reporter

	config *config.Configuration
	stdio  *pipeline.Stdio
	log    *zap.SugaredLogger
	color  bool

	// Set to true to quit the shell
	Quit bool
}

// NewShell wires a shell together. Completion and error lines go to
// stdio.Err, the same stream child processes write their errors to.
func NewShell(cfg *config.Configuration, stdio *pipeline.Stdio, reader LineReader, log *zap.SugaredLogger) *Shell {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = logger.Session(log, fmt.Sprintf("%d", rand.Uint64()))

	reporter := report.New(stdio.Err)
	tracker := jobs.NewTracker(reporter, log)
	executor := pipeline.NewExecutor(stdio, tracker, reporter, log)

	s := &Shell{
		Reader:   reader,
		Parser:   shell.NewParser(cfg.Limits),
		Executor: executor,
		Tracker:  tracker,
		Reporter: reporter,
		config:   cfg,
		stdio:    stdio,
		log:      log,
		color:    cfg.ShouldColor(IsTerminal(stdio.Out)),
	}

	for name, builtin := range AllBuiltins {
		builtin := builtin
		executor.Builtins[name] = pipeline.BuiltinFunc(func(stdio *pipeline.Stdio, args []string) int {
			return builtin.Main(s, stdio, args)
		})
	}

	return s
}

func (s *Shell) prompt() string {
	prompt := expandPrompt(s.config.Prompt)
	if s.color {
		return colorPrompt(prompt)
	}
	return prompt
}

// Run reads and executes lines until exit or end of input and returns the
// shell's exit status.
func (s *Shell) Run() int {
	for !s.Quit {
		s.Tracker.Poll()

		line, err := s.Reader.ReadLine(s.prompt())
		switch {
		case err == io.EOF:
			return s.endOfInput()

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case errors.Is(err, errors.ErrLineTooLong):
			s.Reporter.Error(err)
			continue

		case err != nil:
			s.log.Errorw("read failed", "error", err)
			s.Reporter.Error(err)
			return 1

		default:
			s.RunCommand(line)
		}
	}
	return 0
}

// RunCommand parses and executes a single line. Every failure is reported
// on the status stream and also returned.
func (s *Shell) RunCommand(line string) error {
	job, err := s.Parser.Parse(line)
	if err != nil {
		s.log.Debugw("parse failed", "line", line, "error", err)
		s.Reporter.Error(err)
		return err
	}
	if job == nil {
		return nil
	}

	s.log.Debugw("parsed job", "job", job.String(), "stages", len(job.Stages), "background", job.Background)
	if err := s.Executor.Run(job); err != nil {
		s.Reporter.Error(err)
		return err
	}
	return nil
}

// RunScript executes a single line then waits for any background job it
// started, as `sh -c` would.
func (s *Shell) RunScript(line string) error {
	err := s.RunCommand(line)
	s.Tracker.Drain()
	return err
}

// endOfInput treats the end of input like exit, except it can't refuse: a
// background job still running is reported and terminated.
func (s *Shell) endOfInput() int {
	if err := s.Tracker.CheckExit(); err != nil {
		s.log.Debugw("aborting background job", "job", s.Tracker.Job().String())
		s.Reporter.Error(err)
		s.Tracker.Abort()
		return 1
	}
	return 0
}

func (s *Shell) Close() error {
	return s.Reader.Close()
}
