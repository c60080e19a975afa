package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for ember-addon-tests
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitConfigError  = 2
	ExitProcessError = 3
	ExitStateError   = 4
	ExitPortInUse    = 5
)

// Kind classifies a HarnessError.
type Kind string

const (
	KindGeneral       Kind = "general"
	KindConfiguration Kind = "configuration"
	KindProcess       Kind = "process"
	KindState         Kind = "state"
	KindPort          Kind = "port"
)

// Sentinels for errors.Is checks against a whole category.
var (
	ErrConfiguration = &HarnessError{Kind: KindConfiguration}
	ErrProcess       = &HarnessError{Kind: KindProcess}
	ErrState         = &HarnessError{Kind: KindState}
	ErrPortInUse     = &HarnessError{Kind: KindPort}
)

// HarnessError is the base error type for ember-addon-tests
type HarnessError struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *HarnessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *HarnessError) ExitCode() int {
	return e.Code
}

// Is reports whether target is the category sentinel for e's kind.
func (e *HarnessError) Is(target error) bool {
	t, ok := target.(*HarnessError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// New creates a new general HarnessError
func New(code int, message string) *HarnessError {
	return &HarnessError{
		Kind:    KindGeneral,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a general HarnessError
func Wrap(code int, message string, cause error) *HarnessError {
	return &HarnessError{
		Kind:    KindGeneral,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError returns an error for a missing or unreadable manifest, a
// missing package name or an unresolvable project root.
func ConfigError(message string, cause error) *HarnessError {
	return &HarnessError{
		Kind:    KindConfiguration,
		Code:    ExitConfigError,
		Message: message,
		Cause:   cause,
	}
}

// InvalidState returns an error for an operation invoked against the wrong
// lifecycle state, e.g. stopping a server that is not running.
func InvalidState(message string) *HarnessError {
	return &HarnessError{
		Kind:    KindState,
		Code:    ExitStateError,
		Message: message,
	}
}

// PortInUse returns an error for a dev server port that is already bound.
func PortInUse(port int) *HarnessError {
	return &HarnessError{
		Kind:    KindPort,
		Code:    ExitPortInUse,
		Message: fmt.Sprintf("port %d is already in use", port),
	}
}

// ProcessError reports a subprocess that exited non-zero or could not be
// spawned. ExitStatus is -1 when the process never ran.
type ProcessError struct {
	HarnessError
	Command    string
	Dir        string
	ExitStatus int
	Stdout     string
	Stderr     string
}

// ProcessFailed builds a ProcessError for the given command line.
func ProcessFailed(command, dir string, exitStatus int, stdout, stderr string, cause error) *ProcessError {
	msg := fmt.Sprintf("command `%s` failed", command)
	if exitStatus >= 0 {
		msg = fmt.Sprintf("command `%s` exited with status %d", command, exitStatus)
	}
	return &ProcessError{
		HarnessError: HarnessError{
			Kind:    KindProcess,
			Code:    ExitProcessError,
			Message: msg,
			Cause:   cause,
		},
		Command:    command,
		Dir:        dir,
		ExitStatus: exitStatus,
		Stdout:     stdout,
		Stderr:     stderr,
	}
}

func (e *ProcessError) Error() string {
	msg := e.HarnessError.Error()
	if tail := lastLines(e.Stderr, 10); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

// WithContext prefixes the message with a description of what was being
// attempted, e.g. "starting ember development server failed".
func (e *ProcessError) WithContext(context string) *ProcessError {
	e.Message = context + ": " + e.Message
	return e
}

// Annotate prefixes err with context. A bare *ProcessError is annotated in
// place so it keeps its type and output; any other error, including one
// wrapping a *ProcessError, is wrapped whole.
func Annotate(err error, context string) error {
	if procErr, ok := err.(*ProcessError); ok {
		return procErr.WithContext(context)
	}
	return fmt.Errorf("%s: %w", context, err)
}

func lastLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
