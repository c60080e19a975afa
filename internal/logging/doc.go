// Package logging provides logging utilities for ember-addon-tests.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users of the CLI
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("executing command", "cmd", "yarn install", "dir", dir)
//	logging.Warn("workspace probe failed", "root", root)
//
// Library consumers that never call Setup can enable debug output with
// DEBUG=ember-addon-tests.
//
// # User Output
//
// User-facing messages are prefixed with lipgloss-styled status indicators:
//
//	logging.UserInfo("Initializing workspace for %s...", root)
//	logging.UserSuccess("Created Ember app at %s", path)
//	logging.UserWarning("Port %d is already in use", port)
//	logging.UserError("Failed to start server: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: Stdout (os.Stdout by default)
//   - UserWarning, UserError: Stderr (os.Stderr by default)
package logging
