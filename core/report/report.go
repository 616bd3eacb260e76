// Package report writes the shell's status lines.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reporter writes completion and error lines to the status stream.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Completed writes "+ completed '<text>' [s0] [s1] ..." for a finished job.
func (r *Reporter) Completed(text string, statuses []int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "+ completed '%s'", text)
	for _, status := range statuses {
		fmt.Fprintf(&sb, " [%d]", status)
	}
	sb.WriteByte('\n')

	r.write(sb.String())
}

// Error writes "Error: <message>".
func (r *Reporter) Error(err error) {
	r.write(fmt.Sprintf("Error: %v\n", err))
}

// Println writes a plain status line, e.g. the farewell on exit.
func (r *Reporter) Println(msg string) {
	r.write(msg + "\n")
}

func (r *Reporter) write(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, line)
}
