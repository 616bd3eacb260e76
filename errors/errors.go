package errors

import "errors"

// General exit codes
const (
	CodeOk      int = iota // Used when the shell exits without errors
	CodeUnknown            // Used when no other exit code is appropriate
)

// Parse related exit codes
const (
	CodeParse int = iota + 100
	CodeLimit
	CodeRedirect
	CodeBackground
)

// Execution related exit codes
const (
	CodePolicy int = iota + 200
	CodeLaunch
	CodeResource
)

// Configuration related exit codes
const (
	CodeConfigInvalid int = iota + 50
)

// ShellError extends the standard error interface with a Code method. This code
// is used as the exit code of the program when the error reaches the CLI.
type ShellError interface {
	error
	Code() int
}

// Is wraps the standard errors.Is function so that we don't need to alias that package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps the standard errors.As function so that we don't need to alias that package.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Code returns the exit code carried by err, CodeOk for nil and CodeUnknown
// for errors that don't carry one.
func Code(err error) int {
	if err == nil {
		return CodeOk
	}
	var shellErr ShellError
	if As(err, &shellErr) {
		return shellErr.Code()
	}
	return CodeUnknown
}
