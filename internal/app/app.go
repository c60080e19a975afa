// Package app provides the application context for ember-addon-tests.
// It allows dependency injection for testing.
package app

import (
	"context"

	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/project"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

// App holds the application dependencies
type App struct {
	// Config is the loaded harness configuration
	Config *config.Config

	// Executor runs yarn, npx and ember
	Executor system.CommandExecutor

	// Initializer discovers and installs packages under test
	Initializer *workspace.Initializer

	// Registry shares workspaces between the projects of one invocation
	Registry *workspace.Registry
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets a custom configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// New creates a new App with the given options. The workspace initializer
// and registry are always built from the final Config and Executor.
func New(opts ...Option) *App {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		app.Config = config.Default()
	}
	if app.Executor == nil {
		app.Executor = system.DefaultExecutor()
	}

	app.Initializer = workspace.NewInitializer(app.Config, app.Executor)
	app.Registry = workspace.NewRegistry(app.Initializer)

	return app
}

// NewProject creates a test project whose workspace is built from
// projectRoot. An empty projectRoot is auto-detected.
func (a *App) NewProject(ctx context.Context, projectRoot string, opts ...project.Option) (*project.Project, error) {
	base := []project.Option{
		project.WithRegistry(a.Registry),
		project.WithConfig(a.Config),
		project.WithExecutor(a.Executor),
		project.WithProjectRoot(projectRoot),
	}
	return project.New(ctx, append(base, opts...)...)
}

// PackagesUnderTest lists the packages a workspace built from projectRoot
// would contain.
func (a *App) PackagesUnderTest(ctx context.Context, projectRoot string) ([]workspace.PackageUnderTest, error) {
	return a.Initializer.PackagesUnderTest(ctx, projectRoot)
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
