package errors

// Kind identifies a class of shell error. Two errors of the same kind match
// with Is regardless of their detail.
type Kind int

const (
	KindMissingCommand Kind = iota + 1
	KindTooManyCommands
	KindTooManyArguments
	KindTooManyTokens
	KindLineTooLong
	KindTokenTooLong
	KindMissingInputFile
	KindMissingOutputFile
	KindMultipleInputRedirect
	KindMultipleOutputRedirect
	KindMisplacedInputRedirect
	KindMisplacedOutputRedirect
	KindMisplacedBackground
	KindBuiltinBackground
	KindBuiltinPipeline
	KindBackgroundSlotOccupied
	KindBackgroundJobStillRunning
	KindCannotOpenInput
	KindCannotOpenOutput
	KindCommandNotFound
	KindPipeFailed
	KindCdArguments
	KindCdFailed
)

var kindMessages = map[Kind]string{
	KindMissingCommand:            "missing command",
	KindTooManyCommands:           "too many commands in pipeline",
	KindTooManyArguments:          "too many process arguments",
	KindTooManyTokens:             "too many tokens",
	KindLineTooLong:               "command line too long",
	KindTokenTooLong:              "token too long",
	KindMissingInputFile:          "no input file",
	KindMissingOutputFile:         "no output file",
	KindMultipleInputRedirect:     "multiple input redirections",
	KindMultipleOutputRedirect:    "multiple output redirections",
	KindMisplacedInputRedirect:    "mislocated input redirection",
	KindMisplacedOutputRedirect:   "mislocated output redirection",
	KindMisplacedBackground:       "mislocated background sign",
	KindBuiltinBackground:         "builtin cannot be backgrounded",
	KindBuiltinPipeline:           "builtin cannot be used in a pipeline",
	KindBackgroundSlotOccupied:    "background job already running",
	KindBackgroundJobStillRunning: "active job still running",
	KindCannotOpenInput:           "cannot open input file",
	KindCannotOpenOutput:          "cannot open output file",
	KindCommandNotFound:           "command not found",
	KindPipeFailed:                "cannot create pipe",
	KindCdArguments:               "cd requires exactly one argument",
	KindCdFailed:                  "cannot cd into directory",
}

var kindCodes = map[Kind]int{
	KindMissingCommand:            CodeParse,
	KindTooManyCommands:           CodeLimit,
	KindTooManyArguments:          CodeLimit,
	KindTooManyTokens:             CodeLimit,
	KindLineTooLong:               CodeLimit,
	KindTokenTooLong:              CodeLimit,
	KindMissingInputFile:          CodeRedirect,
	KindMissingOutputFile:         CodeRedirect,
	KindMultipleInputRedirect:     CodeRedirect,
	KindMultipleOutputRedirect:    CodeRedirect,
	KindMisplacedInputRedirect:    CodeRedirect,
	KindMisplacedOutputRedirect:   CodeRedirect,
	KindMisplacedBackground:       CodeBackground,
	KindBuiltinBackground:         CodePolicy,
	KindBuiltinPipeline:           CodePolicy,
	KindBackgroundSlotOccupied:    CodePolicy,
	KindBackgroundJobStillRunning: CodePolicy,
	KindCannotOpenInput:           CodeLaunch,
	KindCannotOpenOutput:          CodeLaunch,
	KindCommandNotFound:           CodeLaunch,
	KindPipeFailed:                CodeResource,
	KindCdArguments:               CodeUnknown,
	KindCdFailed:                  CodeUnknown,
}

// String returns the message printed for the kind.
func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "unknown error"
}

// CommandError is returned for every user-facing shell failure. Detail is
// appended to the message when set, e.g. the offending token.
type CommandError struct {
	Kind   Kind
	Detail string
}

func (err *CommandError) Error() string {
	if err.Detail == "" {
		return err.Kind.String()
	}
	return err.Kind.String() + ": " + err.Detail
}

func (err *CommandError) Code() int {
	if code, ok := kindCodes[err.Kind]; ok {
		return code
	}
	return CodeUnknown
}

// Is matches any CommandError of the same kind.
func (err *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Kind == err.Kind
}

// WithDetail returns a copy of the error carrying detail.
func (err *CommandError) WithDetail(detail string) *CommandError {
	return &CommandError{Kind: err.Kind, Detail: detail}
}

var (
	ErrMissingCommand            = &CommandError{Kind: KindMissingCommand}
	ErrTooManyCommands           = &CommandError{Kind: KindTooManyCommands}
	ErrTooManyArguments          = &CommandError{Kind: KindTooManyArguments}
	ErrTooManyTokens             = &CommandError{Kind: KindTooManyTokens}
	ErrLineTooLong               = &CommandError{Kind: KindLineTooLong}
	ErrTokenTooLong              = &CommandError{Kind: KindTokenTooLong}
	ErrMissingInputFile          = &CommandError{Kind: KindMissingInputFile}
	ErrMissingOutputFile         = &CommandError{Kind: KindMissingOutputFile}
	ErrMultipleInputRedirect     = &CommandError{Kind: KindMultipleInputRedirect}
	ErrMultipleOutputRedirect    = &CommandError{Kind: KindMultipleOutputRedirect}
	ErrMisplacedInputRedirect    = &CommandError{Kind: KindMisplacedInputRedirect}
	ErrMisplacedOutputRedirect   = &CommandError{Kind: KindMisplacedOutputRedirect}
	ErrMisplacedBackground       = &CommandError{Kind: KindMisplacedBackground}
	ErrBuiltinBackground         = &CommandError{Kind: KindBuiltinBackground}
	ErrBuiltinPipeline           = &CommandError{Kind: KindBuiltinPipeline}
	ErrBackgroundSlotOccupied    = &CommandError{Kind: KindBackgroundSlotOccupied}
	ErrBackgroundJobStillRunning = &CommandError{Kind: KindBackgroundJobStillRunning}
	ErrCannotOpenInput           = &CommandError{Kind: KindCannotOpenInput}
	ErrCannotOpenOutput          = &CommandError{Kind: KindCannotOpenOutput}
	ErrCommandNotFound           = &CommandError{Kind: KindCommandNotFound}
	ErrPipeFailed                = &CommandError{Kind: KindPipeFailed}
	ErrCdArguments               = &CommandError{Kind: KindCdArguments}
	ErrCdFailed                  = &CommandError{Kind: KindCdFailed}
)
