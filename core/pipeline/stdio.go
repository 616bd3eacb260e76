package pipeline

import (
	"io"
	"os"
)

// Stdio holds the standard streams the shell hands to the jobs it runs.
// Injecting them allows the shell to be driven from tests.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// DefaultStdio returns Stdio configured with os.Stdin, os.Stdout, os.Stderr.
func DefaultStdio() *Stdio {
	return &Stdio{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// Builtin is a command run inside the shell process.
type Builtin interface {
	Main(stdio *Stdio, args []string) int
}

// BuiltinFunc adapts a function to a Builtin.
type BuiltinFunc func(stdio *Stdio, args []string) int

func (f BuiltinFunc) Main(stdio *Stdio, args []string) int {
	return f(stdio, args)
}

var _ Builtin = (BuiltinFunc)(nil)
