package shell

import (
	"strings"

	"github.com/josephlewis42/sshell/errors"
)

type parseState int

const (
	stateToken parseState = iota
	stateExpectInput
	stateExpectOutput
)

// Parser builds Jobs from command lines.
type Parser struct {
	Limits Limits
}

// NewParser creates a parser bounded by limits.
func NewParser(limits Limits) *Parser {
	return &Parser{Limits: limits}
}

// Parse converts line into a Job. A blank line returns a nil Job and a nil
// error. On error no Job is returned.
func (p *Parser) Parse(line string) (*Job, error) {
	tokens, err := Tokenize(line, p.Limits)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	b := &jobBuilder{
		limits: p.Limits,
		stages: []Stage{{}},
	}
	for i, tok := range tokens {
		if err := b.consume(i, tok); err != nil {
			return nil, err
		}
	}
	return b.finish(line, len(tokens))
}

// jobBuilder holds the in-progress state of a single Parse call.
type jobBuilder struct {
	limits Limits
	state  parseState
	stages []Stage

	// backgroundAt holds the token index of every bare "&".
	backgroundAt []int
}

func (b *jobBuilder) current() *Stage {
	return &b.stages[len(b.stages)-1]
}

// empty reports whether nothing but redirection could have been seen yet.
func (b *jobBuilder) empty() bool {
	return len(b.stages) == 1 && len(b.stages[0].Args) == 0
}

func isOperator(tok string) bool {
	switch tok {
	case OpPipe, OpInput, OpOutput, OpBackground:
		return true
	}
	return false
}

func (b *jobBuilder) consume(index int, tok string) error {
	cur := b.current()

	switch b.state {
	case stateExpectInput:
		if isOperator(tok) {
			return errors.ErrMissingInputFile
		}
		cur.Input = tok
		b.state = stateToken
		return nil

	case stateExpectOutput:
		if isOperator(tok) {
			return errors.ErrMissingOutputFile
		}
		cur.Output = tok
		b.state = stateToken
		return nil
	}

	switch tok {
	case OpPipe:
		if len(cur.Args) == 0 {
			return errors.ErrMissingCommand
		}
		if len(b.stages) >= b.limits.MaxStages {
			return errors.ErrTooManyCommands
		}
		b.stages = append(b.stages, Stage{})

	case OpOutput:
		if cur.Output != "" {
			return errors.ErrMultipleOutputRedirect
		}
		if b.empty() {
			return errors.ErrMissingCommand
		}
		b.state = stateExpectOutput

	case OpInput:
		if cur.Input != "" {
			return errors.ErrMultipleInputRedirect
		}
		if b.empty() {
			return errors.ErrMissingCommand
		}
		b.state = stateExpectInput

	case OpBackground:
		b.backgroundAt = append(b.backgroundAt, index)

	default:
		if len(cur.Args) >= b.limits.MaxArguments {
			return errors.ErrTooManyArguments
		}
		cur.Args = append(cur.Args, tok)
	}

	return nil
}

// finish validates the placement rules that can only be checked once the
// whole line has been seen.
func (b *jobBuilder) finish(line string, tokenCount int) (*Job, error) {
	switch b.state {
	case stateExpectInput:
		return nil, errors.ErrMissingInputFile
	case stateExpectOutput:
		return nil, errors.ErrMissingOutputFile
	}

	background := len(b.backgroundAt) > 0
	if background {
		if len(b.backgroundAt) > 1 || b.backgroundAt[0] != tokenCount-1 {
			return nil, errors.ErrMisplacedBackground
		}
	}

	for _, stage := range b.stages {
		if len(stage.Args) == 0 {
			return nil, errors.ErrMissingCommand
		}
	}

	last := len(b.stages) - 1
	for i, stage := range b.stages {
		if stage.Input != "" && i != 0 {
			return nil, errors.ErrMisplacedInputRedirect
		}
	}
	for i, stage := range b.stages {
		if stage.Output != "" && i != last {
			return nil, errors.ErrMisplacedOutputRedirect
		}
	}

	text := line
	if background {
		// The final token is a bare "&" so the last one in the line is it.
		text = line[:strings.LastIndex(line, OpBackground)]
	}

	return &Job{
		Stages:     b.stages,
		Background: background,
		Text:       text,
	}, nil
}
