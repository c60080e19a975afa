// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
	"io"

	shellquote "github.com/kballard/go-shellquote"
)

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty inherits the caller's.
	Dir string
}

// String renders the command line shell-quoted, for logs and errors.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Result is the outcome of a completed command.
type Result struct {
	// ExitStatus is -1 when the process could not be spawned.
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Process is a running long-lived subprocess.
type Process interface {
	// Stdout streams the process's standard output until it exits.
	// The stream must be drained or the process may block on writes.
	Stdout() io.Reader

	// Done is closed once the process has exited.
	Done() <-chan struct{}

	// Wait blocks until the process exits and returns its exit error.
	Wait() error

	// Terminate signals the process (and its children) to exit.
	Terminate() error

	// Stderr returns what the process wrote to standard error so far.
	Stderr() string
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command to completion, capturing stdout and stderr.
	// A non-zero exit is reported as an error together with the Result.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// Start spawns a long-running command. The returned Process outlives
	// ctx only if ctx is never cancelled; cancelling ctx terminates it.
	Start(ctx context.Context, cmd Command) (Process, error)
}

var defaultExecutor CommandExecutor = &osExecutor{}

// DefaultExecutor returns the default CommandExecutor implementation.
func DefaultExecutor() CommandExecutor {
	return defaultExecutor
}

// SetDefaultExecutor sets the default CommandExecutor (useful for testing).
func SetDefaultExecutor(exec CommandExecutor) {
	defaultExecutor = exec
}

// ResetDefaults restores the default OS implementations.
func ResetDefaults() {
	defaultExecutor = &osExecutor{}
}
