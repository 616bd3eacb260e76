// Package logger is the debug event log of the shell. Events describe what
// the shell did with a line (parse result, started stages, background job
// transitions) and never include program output.
package logger
