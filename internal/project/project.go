package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/manifest"
	"github.com/firefly-engineering/ember-addon-tests/internal/runner"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

// Project is one test project: a package directory inside a shared
// workspace's test-projects directory.
type Project struct {
	path          string
	workspaceRoot string
	cfg           *config.Config
	runner        *runner.Runner

	mu         sync.Mutex
	state      ServerState
	server     system.Process
	serverPort int

	// terminating is set once the server was asked to exit.
	terminating bool
}

type settings struct {
	registry  *workspace.Registry
	workspace workspace.Options
	cfg       *config.Config
	exec      system.CommandExecutor
}

// Option configures a Project
type Option func(*settings)

// WithRegistry resolves the workspace through r. Projects created with the
// same Registry and equal workspace options share a workspace.
func WithRegistry(r *workspace.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithWorkspaceOptions sets the options that identify the workspace.
func WithWorkspaceOptions(opts workspace.Options) Option {
	return func(s *settings) {
		s.workspace = opts
	}
}

// WithProjectRoot sets the root of the project whose packages are tested.
func WithProjectRoot(root string) Option {
	return func(s *settings) {
		s.workspace.ProjectRoot = root
	}
}

// WithConfig sets a custom configuration
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(s *settings) {
		s.exec = exec
	}
}

// New resolves (or builds) the workspace, allocates a uniquely named
// project directory in it and runs `yarn init --yes` there.
//
// Without WithRegistry, projects share workspace.DefaultRegistry() unless
// a custom executor or configuration is given, in which case a private
// Registry is used.
func New(ctx context.Context, opts ...Option) (*Project, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	registry := s.registry
	if registry == nil && s.cfg == nil && s.exec == nil {
		registry = workspace.DefaultRegistry()
	}

	if s.cfg == nil {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, errors.ConfigError("invalid configuration", err)
		}
		s.cfg = cfg
	}
	if registry == nil {
		registry = workspace.NewRegistry(workspace.NewInitializer(s.cfg, s.exec))
	}

	root, err := registry.Resolve(ctx, s.workspace)
	if err != nil {
		return nil, err
	}

	// Many tools reject package names starting with a digit.
	dir, err := os.MkdirTemp(filepath.Join(root, workspace.TestProjectsDir), "a")
	if err != nil {
		return nil, fmt.Errorf("failed to create test project directory: %w", err)
	}

	p := &Project{
		path:          dir,
		workspaceRoot: root,
		cfg:           s.cfg,
		runner:        runner.New(s.exec),
		serverPort:    s.cfg.ServerPort,
	}

	if _, err := p.runner.Run(ctx, dir, s.cfg.PackageManager, "init", "--yes"); err != nil {
		return nil, errors.Annotate(err, "initializing test project failed")
	}

	logging.Debug("created test project", "path", dir, "workspace", root)
	return p, nil
}

// Path returns the absolute path of the project directory.
func (p *Project) Path() string {
	return p.path
}

// Name returns the project directory's base name, which is also its
// package name after creation.
func (p *Project) Name() string {
	return filepath.Base(p.path)
}

// WorkspaceRoot returns the root of the workspace containing the project.
func (p *Project) WorkspaceRoot() string {
	return p.workspaceRoot
}

// RunCommand runs name with args in the project directory.
func (p *Project) RunCommand(ctx context.Context, name string, args ...string) (*system.Result, error) {
	return p.runner.Run(ctx, p.path, name, args...)
}

// RunEmberCommand runs `ember <command> args...` in the project directory.
func (p *Project) RunEmberCommand(ctx context.Context, command string, args ...string) (*system.Result, error) {
	return p.RunCommand(ctx, p.cfg.EmberBinary, append([]string{command}, args...)...)
}

// RunPackageScript runs `yarn <script> args...` in the project directory.
func (p *Project) RunPackageScript(ctx context.Context, script string, args ...string) (*system.Result, error) {
	return p.RunCommand(ctx, p.cfg.PackageManager, append([]string{script}, args...)...)
}

// InstallDependencies runs `yarn install` in the project directory. With
// checkFiles, yarn verifies installed files against the lockfile.
func (p *Project) InstallDependencies(ctx context.Context, checkFiles bool) (*system.Result, error) {
	args := []string{"install"}
	if checkFiles {
		args = append(args, "--check-files")
	}
	return p.RunCommand(ctx, p.cfg.PackageManager, args...)
}

// Manifest parses the project's package.json.
func (p *Project) Manifest() (*manifest.Package, error) {
	return manifest.Read(p.path)
}
