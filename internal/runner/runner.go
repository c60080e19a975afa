// Package runner wraps subprocess invocation with structured logging and
// typed process errors.
package runner

import (
	"context"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
)

// Runner executes commands through a system.CommandExecutor. Every call
// spawns exactly one process; there are no retries.
type Runner struct {
	exec system.CommandExecutor
}

// New creates a Runner. A nil executor selects system.DefaultExecutor().
func New(exec system.CommandExecutor) *Runner {
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	return &Runner{exec: exec}
}

// Executor returns the underlying executor.
func (r *Runner) Executor() system.CommandExecutor {
	return r.exec
}

// Run executes name with args in dir and waits for it to finish. A non-zero
// exit or a spawn failure is returned as *errors.ProcessError; the Result is
// returned in both cases when the executor produced one.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (*system.Result, error) {
	cmd := system.Command{Name: name, Args: args, Dir: dir}
	line := cmd.String()

	logging.Debug("executing command", "cmd", line, "dir", dir)

	result, err := r.exec.Run(ctx, cmd)
	if result == nil {
		result = &system.Result{ExitStatus: -1}
	}

	if err != nil {
		logging.Debug("command failed", "cmd", line, "dir", dir, "status", result.ExitStatus, "error", err)
		return result, errors.ProcessFailed(line, dir, result.ExitStatus, result.Stdout, result.Stderr, err)
	}

	logging.Debug("executed command", "cmd", line, "dir", dir, "status", result.ExitStatus)
	return result, nil
}

// Probe runs a command whose failure is an answer rather than an error.
// It reports whether the command exited zero along with its result.
func (r *Runner) Probe(ctx context.Context, dir, name string, args ...string) (bool, *system.Result) {
	result, err := r.Run(ctx, dir, name, args...)
	return err == nil, result
}

// Start spawns a long-running command in dir. Spawn failures are returned
// as *errors.ProcessError.
func (r *Runner) Start(ctx context.Context, dir, name string, args ...string) (system.Process, error) {
	cmd := system.Command{Name: name, Args: args, Dir: dir}
	line := cmd.String()

	logging.Debug("starting command", "cmd", line, "dir", dir)

	p, err := r.exec.Start(ctx, cmd)
	if err != nil {
		logging.Debug("command could not be started", "cmd", line, "dir", dir, "error", err)
		return nil, errors.ProcessFailed(line, dir, -1, "", "", err)
	}

	logging.Debug("started command", "cmd", line, "dir", dir)
	return p, nil
}
