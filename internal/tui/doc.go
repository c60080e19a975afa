// Package tui provides terminal user interface components for
// ember-addon-tests.
//
// # Spinner
//
// Slow steps such as installing the workspace or generating an app run
// behind a spinner when the output is a terminal, and print a plain line
// otherwise:
//
//	err := tui.RunWithSpinner(ctx, os.Stderr, "Creating ember app", func(ctx context.Context) error {
//	    _, err := p.CreateEmberApp(ctx, project.CreateOptions{})
//	    return err
//	})
//
// Pressing ctrl+c cancels the context handed to the task.
//
// # Package Picker
//
// RunPicker marks packages under test to link into a new project. Space
// cycles a package through dependency, dev dependency and unlinked; enter
// confirms. SimpleList is the non-interactive listing.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - spinner and list components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
