package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/pborman/getopt/v2"

	"github.com/josephlewis42/sshell/core/pipeline"
	"github.com/josephlewis42/sshell/errors"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, stdio *pipeline.Stdio, args []string) int
}

type ShellBuiltinFunc func(s *Shell, stdio *pipeline.Stdio, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, stdio *pipeline.Stdio, args []string) int {
	return f(s, stdio, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the sorted names of every builtin.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseBuiltinArgs parses the flags every builtin accepts. It returns the
// positional arguments, or ok=false if the builtin should return status.
func parseBuiltinArgs(stdio *pipeline.Stdio, usage, short string, args []string) (positional []string, status int, ok bool) {
	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := stdio.Err
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintf(w, "usage: %s\n", usage)
		fmt.Fprintln(w, short)
		if err != nil {
			return nil, 1, false
		}
		return nil, 0, false
	}

	return opts.Args(), 0, true
}

// Pwd prints the working directory.
func Pwd(s *Shell, stdio *pipeline.Stdio, args []string) int {
	if _, status, ok := parseBuiltinArgs(stdio, "pwd", "Print the name of the current working directory.", args); !ok {
		return status
	}

	cwd, err := os.Getwd()
	if err != nil {
		s.Reporter.Error(err)
		return 1
	}
	fmt.Fprintln(stdio.Out, cwd)
	return 0
}

// Cd changes the working directory of the shell.
func Cd(s *Shell, stdio *pipeline.Stdio, args []string) int {
	positional, status, ok := parseBuiltinArgs(stdio, "cd DIR", "Change the shell working directory.", args)
	if !ok {
		return status
	}

	if len(positional) != 1 {
		s.Reporter.Error(errors.ErrCdArguments)
		return 1
	}
	if err := os.Chdir(positional[0]); err != nil {
		s.log.Debugw("chdir failed", "dir", positional[0], "error", err)
		s.Reporter.Error(errors.ErrCdFailed)
		return 1
	}
	return 0
}

// Exit quits the shell unless a background job is still running.
func Exit(s *Shell, stdio *pipeline.Stdio, args []string) int {
	if err := s.Tracker.CheckExit(); err != nil {
		s.Reporter.Error(err)
		return 1
	}

	s.Reporter.Println("Bye...")
	s.Quit = true
	return 0
}

func init() {
	AllBuiltins["pwd"] = ShellBuiltinFunc(Pwd)
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
}
