package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/abiosoft/readline"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/josephlewis42/sshell/errors"
)

// MaxScriptLineLength is the longest line the script reader buffers. Longer
// lines are discarded and reported as too long.
const MaxScriptLineLength = 64 * 1024

// LineReader supplies the shell with one line per call, without the trailing
// newline. It returns io.EOF when input ends and readline.ErrInterrupt when
// the user abandons a line.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// NewLineReader picks an interactive reader when in is a terminal and a
// scripted one otherwise.
func NewLineReader(in io.Reader, out, errOut io.Writer) (LineReader, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewInteractiveReader(f, out, errOut)
	}
	return NewScriptReader(in, out), nil
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type interactiveReader struct {
	in *gatedInput
	rl *readline.Instance
}

// NewInteractiveReader reads lines with history and line editing. The
// terminal is only read while a line is being edited; in between, foreground
// jobs inherit it untouched.
func NewInteractiveReader(in *os.File, out, errOut io.Writer) (LineReader, error) {
	gated := newGatedInput(in)
	cfg := &readline.Config{
		Stdin:  gated,
		Stdout: out,
		Stderr: errOut,
		FuncIsTerminal: func() bool {
			return true
		},
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	return &interactiveReader{in: gated, rl: rl}, nil
}

func (r *interactiveReader) ReadLine(prompt string) (string, error) {
	r.in.Resume()
	defer r.in.Pause()

	r.rl.SetPrompt(prompt)
	return r.rl.Readline()
}

func (r *interactiveReader) Close() error {
	return r.rl.Close()
}

const inputPollTimeout = 50 // milliseconds

// gatedInput reads a file only while resumed. A read is issued only once
// poll reports data, under the same lock Pause takes, so after Pause returns
// nothing in the shell is reading the descriptor.
type gatedInput struct {
	f  *os.File
	fd int

	mu      sync.Mutex
	resumed bool
	closed  bool
}

func newGatedInput(f *os.File) *gatedInput {
	return &gatedInput{f: f, fd: int(f.Fd())}
}

// Resume allows reads to reach the file.
func (g *gatedInput) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumed = true
}

// Pause waits for any read in progress and blocks further ones.
func (g *gatedInput) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumed = false
}

func (g *gatedInput) Read(p []byte) (int, error) {
	for {
		ready, err := g.poll()
		if err != nil {
			return 0, err
		}

		g.mu.Lock()
		switch {
		case g.closed:
			g.mu.Unlock()
			return 0, io.EOF
		case g.resumed && ready:
			n, err := g.f.Read(p)
			g.mu.Unlock()
			return n, err
		}
		paused := !g.resumed
		g.mu.Unlock()

		if ready && paused {
			// Input belongs to someone else, don't spin on it.
			time.Sleep(inputPollTimeout * time.Millisecond)
		}
	}
}

func (g *gatedInput) poll() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(g.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, inputPollTimeout)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close makes pending and future reads return io.EOF. The file itself is
// left open.
func (g *gatedInput) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// scriptReader reads piped input. Since nothing echoes what was typed, it
// writes the prompt and the line it read so transcripts stay readable.
type scriptReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewScriptReader reads newline separated commands from in.
func NewScriptReader(in io.Reader, out io.Writer) LineReader {
	return &scriptReader{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ReadLine returns errors.ErrLineTooLong for a line over
// MaxScriptLineLength; the rest of that line is skipped so the next call
// starts on the following one.
func (r *scriptReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)

	var (
		line    []byte
		tooLong bool
		started bool
	)
	for {
		chunk, isPrefix, err := r.in.ReadLine()
		if err == io.EOF && started {
			break
		}
		if err != nil {
			return "", err
		}
		started = true

		if len(line)+len(chunk) > MaxScriptLineLength {
			tooLong = true
			line = nil
		}
		if !tooLong {
			line = append(line, chunk...)
		}
		if !isPrefix {
			break
		}
	}

	if tooLong {
		fmt.Fprintln(r.out)
		return "", errors.ErrLineTooLong
	}

	fmt.Fprintln(r.out, string(line))
	return string(line), nil
}

func (r *scriptReader) Close() error {
	return nil
}
