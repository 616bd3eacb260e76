// Package shell turns a raw command line into a Job.
//
// A line is split into whitespace separated tokens, then consumed by a small
// state machine that recognizes the operators below. There is no quoting,
// expansion or globbing.
//
//	|    connect the previous stage's stdout to the next stage's stdin
//	<    read stdin of the first stage from a file
//	>    write stdout of the last stage to a file (truncating)
//	&    as the final token, run the job in the background
package shell

import "strings"

const (
	OpPipe       = "|"
	OpInput      = "<"
	OpOutput     = ">"
	OpBackground = "&"
)

// Stage is a single program invocation within a pipeline.
type Stage struct {
	// Args holds the program name followed by its arguments.
	Args []string
	// Input is the file to read stdin from, only valid on the first stage.
	Input string
	// Output is the file to write stdout to, only valid on the last stage.
	Output string
}

// Name returns the program name of the stage.
func (s Stage) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

// Job is a fully parsed pipeline.
type Job struct {
	Stages     []Stage
	Background bool

	// Text is the line as typed, with the trailing background marker removed.
	Text string
}

// ReportText is the command text echoed in the job's completion line.
func (j *Job) ReportText() string {
	if j.Background {
		return j.Text + OpBackground
	}
	return j.Text
}

// String implements fmt.Stringer.
func (j *Job) String() string {
	var parts []string
	for _, stage := range j.Stages {
		part := strings.Join(stage.Args, " ")
		if stage.Input != "" {
			part += " < " + stage.Input
		}
		if stage.Output != "" {
			part += " > " + stage.Output
		}
		parts = append(parts, part)
	}
	out := strings.Join(parts, " | ")
	if j.Background {
		out += " &"
	}
	return out
}

// Limits bounds the size of a command line.
type Limits struct {
	MaxLineLength  int `json:"max_line_length" validate:"gte=1"`
	MaxTokens      int `json:"max_tokens" validate:"gte=1"`
	MaxTokenLength int `json:"max_token_length" validate:"gte=1"`
	MaxArguments   int `json:"max_arguments" validate:"gte=1"`
	MaxStages      int `json:"max_stages" validate:"gte=1"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxLineLength:  512,
		MaxTokens:      256,
		MaxTokenLength: 32,
		MaxArguments:   16,
		MaxStages:      4,
	}
}
