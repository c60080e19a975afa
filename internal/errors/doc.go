// Package errors provides typed errors with exit codes for ember-addon-tests.
//
// # Error Types
//
// HarnessError is the base error type that carries a kind and an exit code:
//
//	type HarnessError struct {
//	    Kind    Kind   // configuration, process, state or general
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// ProcessError embeds HarnessError and adds the command line, the exit
// status and the captured output of a failed subprocess.
//
// Filesystem errors raised while reading, writing or deleting project files
// are never wrapped; callers see the *fs.PathError from the os package.
//
// # Exit Codes
//
//	ExitSuccess      = 0  // Success
//	ExitGeneralError = 1  // General/unknown errors
//	ExitConfigError  = 2  // Missing manifest, package name or project root
//	ExitProcessError = 3  // Subprocess failed or could not be spawned
//	ExitStateError   = 4  // Server started twice or stopped while absent
//	ExitPortInUse    = 5  // Dev server port already bound
//
// # Matching
//
// Categories are matched with the sentinels:
//
//	if errors.Is(err, errors.ErrState) { ... }
//
//	var procErr *errors.ProcessError
//	if errors.As(err, &procErr) {
//	    fmt.Println(procErr.Stderr)
//	}
package errors
