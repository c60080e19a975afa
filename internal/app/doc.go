// Package app provides the application context for ember-addon-tests.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config      *config.Config          // Binaries and conventions
//	    Executor    system.CommandExecutor  // Runs yarn, npx and ember
//	    Initializer *workspace.Initializer  // Builds workspaces
//	    Registry    *workspace.Registry     // Shares workspaces per invocation
//	}
//
// # Creating an App
//
//	// Production usage
//	a := app.New()
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(testConfig),
//	    app.WithExecutor(mockExecutor),
//	)
//
// # Creating Projects
//
//	p, err := a.NewProject(ctx, "path/to/addon")
package app
