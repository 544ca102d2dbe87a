package cmd

import (
	"errors"
	"fmt"
	"io"
)

// Kind classifies failures surfaced at the command boundary.
type Kind int

const (
	// KindIO covers creating or writing a log file.
	KindIO Kind = iota + 1
	// KindEnumeration marks a failure reading the account database.
	KindEnumeration
	// KindUnexpected is any other failure, including recovered panics.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindEnumeration:
		return "enumeration"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Error is the result a subcommand hands back to main. Reported errors have
// already been written to the command's own log and need no further output.
type Error struct {
	Kind     Kind
	Err      error
	Reported bool
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode maps a command result to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// ReportError prints err to w unless the command already logged it.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var cmdErr *Error
	if errors.As(err, &cmdErr) && cmdErr.Reported {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// recoverAsError converts a panic in the calling function into an unexpected error.
func recoverAsError(errp *error) {
	if rec := recover(); rec != nil {
		*errp = &Error{Kind: KindUnexpected, Err: fmt.Errorf("panic: %v", rec)}
	}
}
